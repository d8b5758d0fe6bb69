package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

func TestAnalyzeSubmit_CreatesProcessingRecordAndEnqueues(t *testing.T) {
	t.Parallel()
	uploads := newFakeUploads()
	analyses := newFakeAnalyses()
	store := newFakeStore()
	q := &fakeQueue{}
	svc := NewAnalyzeService(uploads, analyses, store, q)

	body := "%PDF-1.4 fake"
	id, err := svc.Submit(context.Background(), nil, "resume.pdf", "application/pdf", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	a, err := analyses.GetByUploadID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusProcessing), a.Payload["status"])

	require.Len(t, q.tasks, 1)
	assert.Equal(t, domain.TaskResumeAnalyze, q.tasks[0].Kind)
	assert.Equal(t, id, q.tasks[0].RecordID)

	// Raw bytes landed in the store under the upload's object key.
	u, err := uploads.Get(context.Background(), id)
	require.NoError(t, err)
	got, err := store.Get(context.Background(), u.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestAnalyzeSubmit_RejectsEmptyFile(t *testing.T) {
	t.Parallel()
	svc := NewAnalyzeService(newFakeUploads(), newFakeAnalyses(), newFakeStore(), &fakeQueue{})
	_, err := svc.Submit(context.Background(), nil, "resume.pdf", "application/pdf", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestAnalyzeSubmit_AcceptsAnyExtension(t *testing.T) {
	t.Parallel()
	// Unsupported types are accepted at submission; the pipeline fails
	// them terminally instead of the API rejecting them up front.
	q := &fakeQueue{}
	svc := NewAnalyzeService(newFakeUploads(), newFakeAnalyses(), newFakeStore(), q)
	_, err := svc.Submit(context.Background(), nil, "resume.txt", "text/plain", 4, strings.NewReader("text"))
	require.NoError(t, err)
	assert.Len(t, q.tasks, 1)
}

func TestJDMatchSubmit(t *testing.T) {
	t.Parallel()
	uploads := newFakeUploads()
	uploadID, _ := uploads.Create(context.Background(), domain.Upload{Filename: "r.pdf"})
	matches := newFakeMatches()
	q := &fakeQueue{}
	svc := NewJDMatchService(uploads, matches, q)

	id, err := svc.Submit(context.Background(), nil, uploadID, "We need a Go engineer")
	require.NoError(t, err)

	m, err := svc.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, m.Status)
	assert.Equal(t, string(domain.StatusProcessing), m.Payload["status"])
	require.Len(t, q.tasks, 1)
	assert.Equal(t, domain.TaskJDMatch, q.tasks[0].Kind)
}

func TestJDMatchSubmit_EmptyJD(t *testing.T) {
	t.Parallel()
	svc := NewJDMatchService(newFakeUploads(), newFakeMatches(), &fakeQueue{})
	_, err := svc.Submit(context.Background(), nil, "upload-1", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestJDMatchSubmit_UnknownUpload(t *testing.T) {
	t.Parallel()
	svc := NewJDMatchService(newFakeUploads(), newFakeMatches(), &fakeQueue{})
	_, err := svc.Submit(context.Background(), nil, "missing", "jd text")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLatexSubmit_RequiresSuccessfulAnalysis(t *testing.T) {
	t.Parallel()
	uploads := newFakeUploads()
	uploadID, _ := uploads.Create(context.Background(), domain.Upload{Filename: "r.pdf"})
	analyses := newFakeAnalyses()
	svc := NewLatexService(uploads, analyses, newFakeRuns(), newFakeStore(), &fakeQueue{})

	// No analysis at all.
	_, err := svc.Submit(context.Background(), nil, uploadID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Analysis still processing.
	_ = analyses.Upsert(context.Background(), domain.Analysis{UploadID: uploadID, Payload: map[string]any{"status": "PROCESSING"}})
	_, err = svc.Submit(context.Background(), nil, uploadID)
	assert.ErrorIs(t, err, domain.ErrNotReady)

	// Success but no ai_analysis key (e.g. FAILED_PRECHECK would never
	// have one).
	_ = analyses.Upsert(context.Background(), domain.Analysis{UploadID: uploadID, Payload: map[string]any{"status": "SUCCESS"}})
	_, err = svc.Submit(context.Background(), nil, uploadID)
	assert.ErrorIs(t, err, domain.ErrNotReady)
}

func TestLatexSubmit_SnapshotsSuggestions(t *testing.T) {
	t.Parallel()
	uploads := newFakeUploads()
	uploadID, _ := uploads.Create(context.Background(), domain.Upload{Filename: "r.pdf"})
	analyses := newFakeAnalyses()
	_ = analyses.Upsert(context.Background(), domain.Analysis{UploadID: uploadID, Payload: map[string]any{
		"status":      "SUCCESS",
		"ai_analysis": map[string]any{"ats_score": 70.0, "overall_recommendations": "tighten bullets"},
	}})
	runs := newFakeRuns()
	q := &fakeQueue{}
	svc := NewLatexService(uploads, analyses, runs, newFakeStore(), q)

	id, err := svc.Submit(context.Background(), nil, uploadID)
	require.NoError(t, err)

	run, err := svc.Fetch(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 70.0, run.Suggestions["ats_score"])
	require.Len(t, q.tasks, 1)
	assert.Equal(t, domain.TaskLatexGenerate, q.tasks[0].Kind)
}

func TestLatexFetchPDF(t *testing.T) {
	t.Parallel()
	runs := newFakeRuns()
	store := newFakeStore()
	svc := NewLatexService(newFakeUploads(), newFakeAnalyses(), runs, store, &fakeQueue{})

	id, _ := runs.Create(context.Background(), domain.LatexGeneration{UploadID: "u"})
	_, err := svc.FetchPDF(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotReady)

	_ = store.Put(context.Background(), "latex/pdf", "application/pdf", strings.NewReader("%PDF"), 4)
	_ = runs.UpdateResult(context.Background(), id, "src", "latex/pdf", map[string]any{"status": "SUCCESS"})
	pdf, err := svc.FetchPDF(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf))
}
