// Package usecase wires the HTTP surface to repositories, storage and
// the task queue. Each service accepts work, persists a PROCESSING
// record and enqueues the task the worker will run.
package usecase

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// AnalyzeService accepts resume uploads and exposes their analysis
// records for polling.
type AnalyzeService struct {
	Uploads  domain.UploadRepository
	Analyses domain.AnalysisRepository
	Store    domain.FileStore
	Queue    domain.Queue
}

func NewAnalyzeService(uploads domain.UploadRepository, analyses domain.AnalysisRepository, store domain.FileStore, q domain.Queue) AnalyzeService {
	return AnalyzeService{Uploads: uploads, Analyses: analyses, Store: store, Queue: q}
}

// Submit stores the file, creates the upload and its PROCESSING
// analysis record, and enqueues the scoring task. Unsupported file
// types are accepted here; the pipeline rejects them so the record
// still reaches a terminal status.
func (s AnalyzeService) Submit(ctx domain.Context, userID *string, filename, mime string, size int64, r io.Reader) (string, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return "", fmt.Errorf("%w: missing filename", domain.ErrInvalidArgument)
	}
	if size <= 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrInvalidArgument)
	}

	objectKey := fmt.Sprintf("uploads/%s/%s", ulid.Make().String(), filename)
	if err := s.Store.Put(ctx, objectKey, mime, r, size); err != nil {
		return "", fmt.Errorf("op=analyze.Submit: %w", err)
	}

	uploadID, err := s.Uploads.Create(ctx, domain.Upload{
		UserID:    userID,
		ObjectKey: objectKey,
		Filename:  filename,
		MIME:      mime,
		Size:      size,
	})
	if err != nil {
		return "", fmt.Errorf("op=analyze.Submit: %w", err)
	}

	if err := s.Analyses.Upsert(ctx, domain.Analysis{
		UploadID: uploadID,
		Payload:  map[string]any{"status": string(domain.StatusProcessing)},
	}); err != nil {
		return "", fmt.Errorf("op=analyze.Submit: %w", err)
	}

	if _, err := s.Queue.Enqueue(ctx, domain.Task{Kind: domain.TaskResumeAnalyze, RecordID: uploadID}); err != nil {
		return "", fmt.Errorf("op=analyze.Submit enqueue: %w", err)
	}
	return uploadID, nil
}

// Fetch returns the current result payload for an upload; clients poll
// it until payload["status"] is terminal.
func (s AnalyzeService) Fetch(ctx domain.Context, uploadID string) (map[string]any, error) {
	a, err := s.Analyses.GetByUploadID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	return a.Payload, nil
}
