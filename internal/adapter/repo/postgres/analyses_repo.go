package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// AnalysisRepo stores the solo-scoring result bundle, one row per upload.
type AnalysisRepo struct{ Pool PgxPool }

func NewAnalysisRepo(p PgxPool) *AnalysisRepo { return &AnalysisRepo{Pool: p} }

// Upsert writes the payload for an upload; resubmitting the same upload
// replaces the previous bundle in place.
func (r *AnalysisRepo) Upsert(ctx domain.Context, a domain.Analysis) error {
	ctx, span := otel.Tracer("repo.analyses").Start(ctx, "analyses.Upsert")
	defer span.End()
	span.SetAttributes(spanAttrs("analyses", "UPSERT")...)

	id := a.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO analyses (id, upload_id, payload, created_at)
	      VALUES ($1,$2,$3,$4)
	      ON CONFLICT (upload_id) DO UPDATE SET payload = EXCLUDED.payload`
	_, err := r.Pool.Exec(ctx, q, id, a.UploadID, a.Payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=analyses.upsert upload_id=%s: %w", a.UploadID, err)
	}
	return nil
}

// GetByUploadID loads the result bundle for an upload.
func (r *AnalysisRepo) GetByUploadID(ctx domain.Context, uploadID string) (domain.Analysis, error) {
	ctx, span := otel.Tracer("repo.analyses").Start(ctx, "analyses.GetByUploadID")
	defer span.End()
	span.SetAttributes(spanAttrs("analyses", "SELECT")...)

	q := `SELECT id, upload_id, payload, created_at FROM analyses WHERE upload_id=$1`
	var a domain.Analysis
	err := r.Pool.QueryRow(ctx, q, uploadID).Scan(&a.ID, &a.UploadID, &a.Payload, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Analysis{}, fmt.Errorf("op=analyses.get upload_id=%s: %w", uploadID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("op=analyses.get: %w", err)
	}
	return a, nil
}
