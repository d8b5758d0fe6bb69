package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/extract"
	"github.com/aadhil-anwer/resume-analyzer/pkg/textx"
)

// runJDMatch compares the stored resume against the job description text
// captured at submission. No pre-check runs here: the caller already paid
// for the upload, and a short resume can still be matched.
func (p *Pipeline) runJDMatch(ctx domain.Context, matchID string) (status domain.Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("jd match pipeline panicked", slog.String("match_id", matchID), slog.Any("panic", r))
			status = domain.StatusFailed
			err = p.failMatch(ctx, matchID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	m, err := p.Matches.Get(ctx, matchID)
	if err != nil {
		return domain.StatusFailed, err
	}
	if m.Status.Terminal() {
		slog.Info("jd match already terminal, skipping", slog.String("match_id", matchID), slog.String("status", string(m.Status)))
		return m.Status, nil
	}

	upload, err := p.Uploads.Get(ctx, m.UploadID)
	if err != nil {
		return domain.StatusFailed, p.failMatch(ctx, matchID, fmt.Sprintf("upload not found: %v", err))
	}

	if !extract.Supported(upload.Filename) {
		return domain.StatusFailed, p.failMatch(ctx, matchID, fmt.Sprintf("Unsupported file type: %s", upload.Filename))
	}

	text, err := p.extractUpload(ctx, upload)
	if err != nil {
		return domain.StatusFailed, p.failMatch(ctx, matchID, err.Error())
	}

	// The job description goes through the same normalization as the
	// extracted resume text before either reaches the matcher.
	result := p.Matching.MatchResume(ctx, text, textx.Normalize(m.JDText))

	status = domain.StatusSuccess
	if _, failed := result["error"]; failed {
		status = domain.StatusFailed
	}
	payload := map[string]any{
		"status": string(status),
		"match":  result,
	}
	if uerr := p.Matches.UpdateResult(ctx, matchID, payload, status); uerr != nil {
		return domain.StatusFailed, uerr
	}
	return status, nil
}

func (p *Pipeline) failMatch(ctx domain.Context, matchID, msg string) error {
	payload := map[string]any{
		"status": string(domain.StatusFailed),
		"error":  msg,
	}
	if err := p.Matches.UpdateResult(ctx, matchID, payload, domain.StatusFailed); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	return nil
}
