package usecase

import (
	"fmt"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// LatexService accepts LaTeX regeneration requests. A regeneration
// requires a successful solo analysis first: its suggestions are
// snapshotted onto the run so later re-analysis cannot change what the
// generator saw.
type LatexService struct {
	Uploads  domain.UploadRepository
	Analyses domain.AnalysisRepository
	Runs     domain.LatexRepository
	Store    domain.FileStore
	Queue    domain.Queue
}

func NewLatexService(uploads domain.UploadRepository, analyses domain.AnalysisRepository, runs domain.LatexRepository, store domain.FileStore, q domain.Queue) LatexService {
	return LatexService{Uploads: uploads, Analyses: analyses, Runs: runs, Store: store, Queue: q}
}

// Submit creates a PROCESSING generation run and enqueues it.
func (s LatexService) Submit(ctx domain.Context, userID *string, uploadID string) (string, error) {
	if _, err := s.Uploads.Get(ctx, uploadID); err != nil {
		return "", fmt.Errorf("op=latex.Submit: %w", err)
	}

	analysis, err := s.Analyses.GetByUploadID(ctx, uploadID)
	if err != nil {
		return "", fmt.Errorf("op=latex.Submit: %w", err)
	}
	status, _ := analysis.Payload["status"].(string)
	if status != string(domain.StatusSuccess) {
		return "", fmt.Errorf("%w: analysis status is %q, need SUCCESS before generating", domain.ErrNotReady, status)
	}
	suggestions, _ := analysis.Payload["ai_analysis"].(map[string]any)
	if suggestions == nil {
		return "", fmt.Errorf("%w: analysis has no ai_analysis result", domain.ErrNotReady)
	}

	id, err := s.Runs.Create(ctx, domain.LatexGeneration{
		UserID:      userID,
		UploadID:    uploadID,
		Suggestions: suggestions,
		Payload:     map[string]any{"status": string(domain.StatusProcessing)},
	})
	if err != nil {
		return "", fmt.Errorf("op=latex.Submit: %w", err)
	}

	if _, err := s.Queue.Enqueue(ctx, domain.Task{Kind: domain.TaskLatexGenerate, RecordID: id}); err != nil {
		return "", fmt.Errorf("op=latex.Submit enqueue: %w", err)
	}
	return id, nil
}

// Fetch returns the generation run for polling.
func (s LatexService) Fetch(ctx domain.Context, id string) (domain.LatexGeneration, error) {
	return s.Runs.Get(ctx, id)
}

// FetchPDF returns the compiled PDF bytes for a finished run.
func (s LatexService) FetchPDF(ctx domain.Context, id string) ([]byte, error) {
	run, err := s.Runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.PDFObjectKey == "" {
		return nil, fmt.Errorf("%w: pdf not generated yet", domain.ErrNotReady)
	}
	return s.Store.Get(ctx, run.PDFObjectKey)
}
