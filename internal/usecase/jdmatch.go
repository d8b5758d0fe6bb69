package usecase

import (
	"fmt"
	"strings"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

// JDMatchService accepts resume-vs-job-description match requests.
type JDMatchService struct {
	Uploads domain.UploadRepository
	Matches domain.JDMatchRepository
	Queue   domain.Queue
}

func NewJDMatchService(uploads domain.UploadRepository, matches domain.JDMatchRepository, q domain.Queue) JDMatchService {
	return JDMatchService{Uploads: uploads, Matches: matches, Queue: q}
}

// Submit validates the upload exists, creates a PROCESSING match record
// and enqueues the comparison task.
func (s JDMatchService) Submit(ctx domain.Context, userID *string, uploadID, jdText string) (string, error) {
	jdText = strings.TrimSpace(jdText)
	if jdText == "" {
		return "", fmt.Errorf("%w: empty job description", domain.ErrInvalidArgument)
	}
	if _, err := s.Uploads.Get(ctx, uploadID); err != nil {
		return "", fmt.Errorf("op=jdmatch.Submit: %w", err)
	}

	id, err := s.Matches.Create(ctx, domain.JDMatch{
		UserID:   userID,
		UploadID: uploadID,
		JDText:   jdText,
		Payload:  map[string]any{"status": string(domain.StatusProcessing)},
		Status:   domain.StatusProcessing,
	})
	if err != nil {
		return "", fmt.Errorf("op=jdmatch.Submit: %w", err)
	}

	if _, err := s.Queue.Enqueue(ctx, domain.Task{Kind: domain.TaskJDMatch, RecordID: id}); err != nil {
		return "", fmt.Errorf("op=jdmatch.Submit enqueue: %w", err)
	}
	return id, nil
}

// Fetch returns the match record for polling.
func (s JDMatchService) Fetch(ctx domain.Context, id string) (domain.JDMatch, error) {
	return s.Matches.Get(ctx, id)
}
