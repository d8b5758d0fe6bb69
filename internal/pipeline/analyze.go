package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/extract"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
	"github.com/aadhil-anwer/resume-analyzer/internal/precheck"
)

// runAnalyze executes the solo scoring pipeline for one upload:
// extract, pre-check, score, persist. Pre-check failure is a cost
// control, not an error: the AI is never called and the record gets
// FAILED_PRECHECK. Panics anywhere in the sequence are caught and
// recorded as FAILED.
func (p *Pipeline) runAnalyze(ctx domain.Context, uploadID string) (status domain.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("analyze pipeline panicked", slog.String("upload_id", uploadID), slog.Any("panic", r))
			status = domain.StatusFailed
			err = p.failAnalysis(ctx, uploadID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	existing, err := p.Analyses.GetByUploadID(ctx, uploadID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.StatusFailed, err
	}
	if s, _ := existing.Payload["status"].(string); domain.Status(s).Terminal() {
		slog.Info("analysis already terminal, skipping", slog.String("upload_id", uploadID), slog.String("status", s))
		return domain.Status(s), nil
	}

	upload, err := p.Uploads.Get(ctx, uploadID)
	if err != nil {
		return domain.StatusFailed, p.failAnalysis(ctx, uploadID, fmt.Sprintf("upload not found: %v", err))
	}

	if !extract.Supported(upload.Filename) {
		return domain.StatusFailed, p.failAnalysis(ctx, uploadID, fmt.Sprintf("Unsupported file type: %s", upload.Filename))
	}

	text, err := p.extractUpload(ctx, upload)
	if err != nil {
		return domain.StatusFailed, p.failAnalysis(ctx, uploadID, err.Error())
	}

	report := precheck.Run(text)
	if report.Failed {
		payload := map[string]any{
			"status":      string(domain.StatusFailedPrecheck),
			"local_check": map[string]any{"failed": report.Failed, "feedback": report.Feedback},
		}
		if uerr := p.Analyses.Upsert(ctx, domain.Analysis{UploadID: uploadID, Payload: payload}); uerr != nil {
			return domain.StatusFailed, uerr
		}
		return domain.StatusFailedPrecheck, nil
	}

	aiResult := p.Scoring.ScoreResume(ctx, text)
	if score, ok := aiResult["ats_score"].(float64); ok {
		observability.ObserveATSScore(score)
	}

	payload := map[string]any{
		"status":      string(domain.StatusSuccess),
		"local_check": map[string]any{"failed": report.Failed, "feedback": report.Feedback},
		"ai_analysis": aiResult,
	}
	if err := p.Analyses.Upsert(ctx, domain.Analysis{UploadID: uploadID, Payload: payload}); err != nil {
		return domain.StatusFailed, err
	}
	return domain.StatusSuccess, nil
}

// failAnalysis writes a FAILED payload; the error message is surfaced
// to the polling client.
func (p *Pipeline) failAnalysis(ctx domain.Context, uploadID, msg string) error {
	payload := map[string]any{
		"status": string(domain.StatusFailed),
		"error":  msg,
	}
	if err := p.Analyses.Upsert(ctx, domain.Analysis{UploadID: uploadID, Payload: payload}); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}
