package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// PgxPool is the minimal subset of pgxpool the repos need; tests swap in
// a fake.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UploadRepo persists resume upload metadata.
type UploadRepo struct{ Pool PgxPool }

func NewUploadRepo(p PgxPool) *UploadRepo { return &UploadRepo{Pool: p} }

func spanAttrs(table, op string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", table),
	}
}

// Create stores a new upload and returns its id (generates one if empty).
func (r *UploadRepo) Create(ctx domain.Context, u domain.Upload) (string, error) {
	ctx, span := otel.Tracer("repo.uploads").Start(ctx, "uploads.Create")
	defer span.End()
	span.SetAttributes(spanAttrs("uploads", "INSERT")...)

	id := u.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO uploads (id, user_id, object_key, filename, mime, size, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, u.UserID, u.ObjectKey, u.Filename, u.MIME, u.Size, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=uploads.create: %w", err)
	}
	return id, nil
}

// Get loads an upload by id.
func (r *UploadRepo) Get(ctx domain.Context, id string) (domain.Upload, error) {
	ctx, span := otel.Tracer("repo.uploads").Start(ctx, "uploads.Get")
	defer span.End()
	span.SetAttributes(spanAttrs("uploads", "SELECT")...)

	q := `SELECT id, user_id, object_key, filename, mime, size, created_at FROM uploads WHERE id=$1`
	var u domain.Upload
	err := r.Pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.UserID, &u.ObjectKey, &u.Filename, &u.MIME, &u.Size, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Upload{}, fmt.Errorf("op=uploads.get id=%s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Upload{}, fmt.Errorf("op=uploads.get: %w", err)
	}
	return u, nil
}
