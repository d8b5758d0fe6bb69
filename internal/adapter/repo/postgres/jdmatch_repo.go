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

// JDMatchRepo persists resume-vs-job-description match runs.
type JDMatchRepo struct{ Pool PgxPool }

func NewJDMatchRepo(p PgxPool) *JDMatchRepo { return &JDMatchRepo{Pool: p} }

// Create stores a new match run in PROCESSING state.
func (r *JDMatchRepo) Create(ctx domain.Context, m domain.JDMatch) (string, error) {
	ctx, span := otel.Tracer("repo.jd_matches").Start(ctx, "jd_matches.Create")
	defer span.End()
	span.SetAttributes(spanAttrs("jd_matches", "INSERT")...)

	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := m.Status
	if status == "" {
		status = domain.StatusProcessing
	}
	q := `INSERT INTO jd_matches (id, user_id, upload_id, jd_text, payload, status, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, m.UserID, m.UploadID, m.JDText, m.Payload, string(status), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=jd_matches.create: %w", err)
	}
	return id, nil
}

// Get loads a match run by id.
func (r *JDMatchRepo) Get(ctx domain.Context, id string) (domain.JDMatch, error) {
	ctx, span := otel.Tracer("repo.jd_matches").Start(ctx, "jd_matches.Get")
	defer span.End()
	span.SetAttributes(spanAttrs("jd_matches", "SELECT")...)

	q := `SELECT id, user_id, upload_id, jd_text, payload, status, created_at FROM jd_matches WHERE id=$1`
	var m domain.JDMatch
	var status string
	err := r.Pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.UserID, &m.UploadID, &m.JDText, &m.Payload, &status, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.JDMatch{}, fmt.Errorf("op=jd_matches.get id=%s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.JDMatch{}, fmt.Errorf("op=jd_matches.get: %w", err)
	}
	m.Status = domain.Status(status)
	return m, nil
}

// UpdateResult writes the payload and status column in a single
// statement so the payload's embedded status and the enum column cannot
// drift apart.
func (r *JDMatchRepo) UpdateResult(ctx domain.Context, id string, payload map[string]any, status domain.Status) error {
	ctx, span := otel.Tracer("repo.jd_matches").Start(ctx, "jd_matches.UpdateResult")
	defer span.End()
	span.SetAttributes(spanAttrs("jd_matches", "UPDATE")...)

	q := `UPDATE jd_matches SET payload=$2, status=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, payload, string(status))
	if err != nil {
		return fmt.Errorf("op=jd_matches.update id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=jd_matches.update id=%s: %w", id, domain.ErrNotFound)
	}
	return nil
}
