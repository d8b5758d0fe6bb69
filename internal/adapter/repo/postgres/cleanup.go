package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CleanupService enforces the analysis retention window. Records past
// the window are deleted together with their uploads and derived runs.
type CleanupService struct {
	Pool          *pgxpool.Pool
	RetentionDays int
}

func NewCleanupService(pool *pgxpool.Pool, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CleanupService{Pool: pool, RetentionDays: retentionDays}
}

// CleanupOldData removes rows older than the retention window.
func (s *CleanupService) CleanupOldData(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.RetentionDays)

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cleanup begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tagAnalyses, err := tx.Exec(ctx, `DELETE FROM analyses WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup analyses: %w", err)
	}
	tagMatches, err := tx.Exec(ctx, `DELETE FROM jd_matches WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup jd_matches: %w", err)
	}
	tagLatex, err := tx.Exec(ctx, `DELETE FROM latex_generations WHERE created_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup latex_generations: %w", err)
	}

	// Uploads go last so nothing still references them.
	tagUploads, err := tx.Exec(ctx, `
		DELETE FROM uploads
		WHERE created_at < $1
		AND id NOT IN (SELECT upload_id FROM analyses)
		AND id NOT IN (SELECT upload_id FROM jd_matches)
		AND id NOT IN (SELECT upload_id FROM latex_generations)
	`, cutoff)
	if err != nil {
		return fmt.Errorf("cleanup uploads: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cleanup commit: %w", err)
	}

	slog.Info("data cleanup completed",
		slog.Int64("deleted_analyses", tagAnalyses.RowsAffected()),
		slog.Int64("deleted_jd_matches", tagMatches.RowsAffected()),
		slog.Int64("deleted_latex_generations", tagLatex.RowsAffected()),
		slog.Int64("deleted_uploads", tagUploads.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)
	return nil
}

// RunPeriodic runs cleanup on a ticker until the context is canceled.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.CleanupOldData(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if err := s.CleanupOldData(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
