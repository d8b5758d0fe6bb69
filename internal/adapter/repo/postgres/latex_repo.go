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

// LatexRepo persists LaTeX regeneration runs.
type LatexRepo struct{ Pool PgxPool }

func NewLatexRepo(p PgxPool) *LatexRepo { return &LatexRepo{Pool: p} }

// Create stores a new generation run in PROCESSING state, snapshotting
// the suggestions it will rewrite against.
func (r *LatexRepo) Create(ctx domain.Context, g domain.LatexGeneration) (string, error) {
	ctx, span := otel.Tracer("repo.latex_generations").Start(ctx, "latex_generations.Create")
	defer span.End()
	span.SetAttributes(spanAttrs("latex_generations", "INSERT")...)

	id := g.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO latex_generations (id, user_id, upload_id, suggestions, payload, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.Pool.Exec(ctx, q, id, g.UserID, g.UploadID, g.Suggestions, g.Payload, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=latex_generations.create: %w", err)
	}
	return id, nil
}

// Get loads a generation run by id.
func (r *LatexRepo) Get(ctx domain.Context, id string) (domain.LatexGeneration, error) {
	ctx, span := otel.Tracer("repo.latex_generations").Start(ctx, "latex_generations.Get")
	defer span.End()
	span.SetAttributes(spanAttrs("latex_generations", "SELECT")...)

	q := `SELECT id, user_id, upload_id, suggestions, latex_source, pdf_object_key, payload, created_at FROM latex_generations WHERE id=$1`
	var g domain.LatexGeneration
	var latexSource, pdfKey *string
	err := r.Pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.UserID, &g.UploadID, &g.Suggestions, &latexSource, &pdfKey, &g.Payload, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LatexGeneration{}, fmt.Errorf("op=latex_generations.get id=%s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.LatexGeneration{}, fmt.Errorf("op=latex_generations.get: %w", err)
	}
	if latexSource != nil {
		g.LatexSource = *latexSource
	}
	if pdfKey != nil {
		g.PDFObjectKey = *pdfKey
	}
	return g, nil
}

// UpdateResult writes the generated source, the stored PDF key and the
// result payload in one statement.
func (r *LatexRepo) UpdateResult(ctx domain.Context, id string, latexSource, pdfObjectKey string, payload map[string]any) error {
	ctx, span := otel.Tracer("repo.latex_generations").Start(ctx, "latex_generations.UpdateResult")
	defer span.End()
	span.SetAttributes(spanAttrs("latex_generations", "UPDATE")...)

	q := `UPDATE latex_generations SET latex_source=$2, pdf_object_key=$3, payload=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, latexSource, pdfObjectKey, payload)
	if err != nil {
		return fmt.Errorf("op=latex_generations.update id=%s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=latex_generations.update id=%s: %w", id, domain.ErrNotFound)
	}
	return nil
}
