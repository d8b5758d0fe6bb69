// Package storage implements the FileStore port: MinIO for real
// deployments, a local directory for development.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// MinIOStore keeps raw uploads and generated PDFs in a single bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIO connects to the object store and makes sure the bucket
// exists.
func NewMinIO(ctx context.Context, cfg config.Config) (*MinIOStore, error) {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("op=storage.NewMinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("op=storage.NewMinIO bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("op=storage.NewMinIO make bucket: %w", err)
		}
		slog.Info("bucket created", slog.String("bucket", cfg.MinIOBucket))
	}
	return &MinIOStore{client: client, bucket: cfg.MinIOBucket}, nil
}

// Put streams an object into the bucket.
func (s *MinIOStore) Put(ctx domain.Context, key, contentType string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("op=storage.Put key=%s: %w", key, err)
	}
	return nil
}

// Get reads a whole object back.
func (s *MinIOStore) Get(ctx domain.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("op=storage.Get key=%s: %w", key, err)
	}
	defer func() { _ = obj.Close() }()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("op=storage.Get key=%s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=storage.Get read key=%s: %w", key, err)
	}
	return data, nil
}
