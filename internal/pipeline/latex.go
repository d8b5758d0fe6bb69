package pipeline

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// runLatex regenerates the resume as LaTeX, compiles it to PDF, stores the
// artifact, and records both the source and a data URI for direct preview.
// Generation and compilation failures are reported separately so the client
// can tell a bad model response from a bad TeX toolchain.
func (p *Pipeline) runLatex(ctx domain.Context, runID string) (status domain.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("latex pipeline panicked", slog.String("run_id", runID), slog.Any("panic", r))
			status = domain.StatusFailed
			err = p.failLatex(ctx, runID, "", fmt.Sprintf("internal error: %v", r))
		}
	}()

	run, err := p.Runs.Get(ctx, runID)
	if err != nil {
		return domain.StatusFailed, err
	}
	if s, _ := run.Payload["status"].(string); domain.Status(s).Terminal() {
		slog.Info("latex run already terminal, skipping", slog.String("run_id", runID), slog.String("status", s))
		return domain.Status(s), nil
	}

	upload, err := p.Uploads.Get(ctx, run.UploadID)
	if err != nil {
		return domain.StatusFailed, p.failLatex(ctx, runID, "", fmt.Sprintf("upload not found: %v", err))
	}

	text, err := p.extractUpload(ctx, upload)
	if err != nil {
		return domain.StatusFailed, p.failLatex(ctx, runID, "", err.Error())
	}

	source, err := p.Latex.GenerateLatex(ctx, text, run.Suggestions)
	if err != nil {
		return domain.StatusFailed, p.failLatex(ctx, runID, "", fmt.Sprintf("LaTeX generation failed: %v", err))
	}

	// From here on the generated source is kept on the record so a
	// compile failure can be debugged against it.
	pdf, err := p.Compiler.Compile(ctx, source)
	if err != nil {
		return domain.StatusFailed, p.failLatex(ctx, runID, source, fmt.Sprintf("PDF compilation failed: %v", err))
	}

	objectKey := fmt.Sprintf("latex/%s/resume.pdf", runID)
	if err := p.Store.Put(ctx, objectKey, "application/pdf", bytes.NewReader(pdf), int64(len(pdf))); err != nil {
		return domain.StatusFailed, p.failLatex(ctx, runID, source, fmt.Sprintf("store PDF: %v", err))
	}

	payload := map[string]any{
		"status":       string(domain.StatusSuccess),
		"pdf_data_uri": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
	}
	if uerr := p.Runs.UpdateResult(ctx, runID, source, objectKey, payload); uerr != nil {
		return domain.StatusFailed, uerr
	}
	return domain.StatusSuccess, nil
}

// failLatex writes a FAILED payload. source is whatever LaTeX had been
// generated by the time of the failure, empty before generation.
func (p *Pipeline) failLatex(ctx domain.Context, runID, source, msg string) error {
	payload := map[string]any{
		"status": string(domain.StatusFailed),
		"error":  msg,
	}
	if err := p.Runs.UpdateResult(ctx, runID, source, "", payload); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}
