package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/pipeline"
)

type fakeUploads struct {
	uploads map[string]domain.Upload
}

func (f *fakeUploads) Create(_ domain.Context, u domain.Upload) (string, error) {
	f.uploads[u.ID] = u
	return u.ID, nil
}

func (f *fakeUploads) Get(_ domain.Context, id string) (domain.Upload, error) {
	u, ok := f.uploads[id]
	if !ok {
		return domain.Upload{}, domain.ErrNotFound
	}
	return u, nil
}

type fakeAnalyses struct {
	byUpload map[string]domain.Analysis
}

func (f *fakeAnalyses) Upsert(_ domain.Context, a domain.Analysis) error {
	f.byUpload[a.UploadID] = a
	return nil
}

func (f *fakeAnalyses) GetByUploadID(_ domain.Context, uploadID string) (domain.Analysis, error) {
	a, ok := f.byUpload[uploadID]
	if !ok {
		return domain.Analysis{}, domain.ErrNotFound
	}
	return a, nil
}

type fakeMatches struct {
	matches map[string]domain.JDMatch
}

func (f *fakeMatches) Create(_ domain.Context, m domain.JDMatch) (string, error) {
	f.matches[m.ID] = m
	return m.ID, nil
}

func (f *fakeMatches) Get(_ domain.Context, id string) (domain.JDMatch, error) {
	m, ok := f.matches[id]
	if !ok {
		return domain.JDMatch{}, domain.ErrNotFound
	}
	return m, nil
}

func (f *fakeMatches) UpdateResult(_ domain.Context, id string, payload map[string]any, status domain.Status) error {
	m, ok := f.matches[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.Payload = payload
	m.Status = status
	f.matches[id] = m
	return nil
}

type fakeRuns struct {
	runs map[string]domain.LatexGeneration
}

func (f *fakeRuns) Create(_ domain.Context, g domain.LatexGeneration) (string, error) {
	f.runs[g.ID] = g
	return g.ID, nil
}

func (f *fakeRuns) Get(_ domain.Context, id string) (domain.LatexGeneration, error) {
	g, ok := f.runs[id]
	if !ok {
		return domain.LatexGeneration{}, domain.ErrNotFound
	}
	return g, nil
}

func (f *fakeRuns) UpdateResult(_ domain.Context, id string, latexSource, pdfObjectKey string, payload map[string]any) error {
	g, ok := f.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	g.LatexSource = latexSource
	g.PDFObjectKey = pdfObjectKey
	g.Payload = payload
	f.runs[id] = g
	return nil
}

type fakeStore struct {
	objects map[string][]byte
}

func (f *fakeStore) Put(_ domain.Context, key, _ string, r io.Reader, _ int64) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeStore) Get(_ domain.Context, key string) ([]byte, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

// fakeExtractor hands back the stored bytes as text, mirroring the real
// extractor's never-fails contract.
type fakeExtractor struct{}

func (fakeExtractor) Extract(_ domain.Context, _ string, data []byte) string {
	return string(data)
}

type fakeScoring struct {
	calls  int
	result map[string]any
}

func (f *fakeScoring) ScoreResume(_ domain.Context, _ string) map[string]any {
	f.calls++
	return f.result
}

type fakeMatcher struct {
	calls  int
	gotJD  string
	result map[string]any
}

func (f *fakeMatcher) MatchResume(_ domain.Context, _, jdText string) map[string]any {
	f.calls++
	f.gotJD = jdText
	return f.result
}

type fakeLatexGen struct {
	source string
	err    error
}

func (f *fakeLatexGen) GenerateLatex(_ domain.Context, _ string, _ map[string]any) (string, error) {
	return f.source, f.err
}

type fakeCompiler struct {
	pdf []byte
	err error
}

func (f *fakeCompiler) Compile(_ domain.Context, _ string) ([]byte, error) {
	return f.pdf, f.err
}

type fixture struct {
	p        *pipeline.Pipeline
	uploads  *fakeUploads
	analyses *fakeAnalyses
	matches  *fakeMatches
	runs     *fakeRuns
	store    *fakeStore
	scoring  *fakeScoring
	matcher  *fakeMatcher
	latex    *fakeLatexGen
	compiler *fakeCompiler
}

func newFixture() *fixture {
	f := &fixture{
		uploads:  &fakeUploads{uploads: map[string]domain.Upload{}},
		analyses: &fakeAnalyses{byUpload: map[string]domain.Analysis{}},
		matches:  &fakeMatches{matches: map[string]domain.JDMatch{}},
		runs:     &fakeRuns{runs: map[string]domain.LatexGeneration{}},
		store:    &fakeStore{objects: map[string][]byte{}},
		scoring:  &fakeScoring{result: map[string]any{"ats_score": 82.0}},
		matcher:  &fakeMatcher{result: map[string]any{"status": "SUCCESS", "evaluation": map[string]any{"total_score": 74.0}}},
		latex:    &fakeLatexGen{source: "\\documentclass{article}\\begin{document}hi\\end{document}"},
		compiler: &fakeCompiler{pdf: []byte("%PDF-1.7 fake")},
	}
	f.p = &pipeline.Pipeline{
		Uploads:   f.uploads,
		Analyses:  f.analyses,
		Matches:   f.matches,
		Runs:      f.runs,
		Store:     f.store,
		Extractor: fakeExtractor{},
		Scoring:   f.scoring,
		Matching:  f.matcher,
		Latex:     f.latex,
		Compiler:  f.compiler,
	}
	return f
}

// goodResume is long enough, sectioned, bulleted, and has an email so the
// pre-check passes.
func goodResume() string {
	var b strings.Builder
	b.WriteString("Jane Doe\njane@example.com\n\nExperience\n")
	for i := 0; i < 120; i++ {
		b.WriteString(fmt.Sprintf("- shipped backend services for team %d\n", i))
	}
	b.WriteString("\nEducation\nBSc Computer Science\n")
	return b.String()
}

func (f *fixture) seedUpload(t *testing.T, id, filename, content string) {
	t.Helper()
	key := "uploads/" + id + "/" + filename
	f.store.objects[key] = []byte(content)
	f.uploads.uploads[id] = domain.Upload{ID: id, ObjectKey: key, Filename: filename}
	f.analyses.byUpload[id] = domain.Analysis{UploadID: id, Payload: map[string]any{"status": "PROCESSING"}}
}

func TestAnalyzeSuccess(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u1", "resume.pdf", goodResume())

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskResumeAnalyze, RecordID: "u1"})
	require.NoError(t, err)

	got := f.analyses.byUpload["u1"].Payload
	assert.Equal(t, "SUCCESS", got["status"])
	assert.Equal(t, map[string]any{"ats_score": 82.0}, got["ai_analysis"])
	local, ok := got["local_check"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, local["failed"])
	assert.Equal(t, 1, f.scoring.calls)
}

func TestAnalyzeUnsupportedTypeSkipsAI(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u2", "resume.txt", "plain text resume")

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskResumeAnalyze, RecordID: "u2"})
	require.NoError(t, err)

	got := f.analyses.byUpload["u2"].Payload
	assert.Equal(t, "FAILED", got["status"])
	assert.Contains(t, got["error"], "Unsupported file type")
	assert.Zero(t, f.scoring.calls, "AI must not run for unsupported types")
}

func TestAnalyzePrecheckFailureSkipsAI(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u3", "resume.pdf", "way too short")

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskResumeAnalyze, RecordID: "u3"})
	require.NoError(t, err)

	got := f.analyses.byUpload["u3"].Payload
	assert.Equal(t, "FAILED_PRECHECK", got["status"])
	assert.NotContains(t, got, "ai_analysis")
	local, ok := got["local_check"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, local["failed"])
	assert.Zero(t, f.scoring.calls)
}

func TestAnalyzeTerminalRecordIsNotRedone(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u4", "resume.pdf", goodResume())
	f.analyses.byUpload["u4"] = domain.Analysis{
		UploadID: "u4",
		Payload:  map[string]any{"status": "SUCCESS", "ai_analysis": map[string]any{"ats_score": 91.0}},
	}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskResumeAnalyze, RecordID: "u4"})
	require.NoError(t, err)

	got := f.analyses.byUpload["u4"].Payload
	assert.Equal(t, map[string]any{"ats_score": 91.0}, got["ai_analysis"], "terminal record must not be overwritten")
	assert.Zero(t, f.scoring.calls)
}

func TestJDMatchSuccessSyncsPayloadAndColumn(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u5", "resume.pdf", goodResume())
	f.matches.matches["m1"] = domain.JDMatch{ID: "m1", UploadID: "u5", JDText: "Go engineer", Status: domain.StatusProcessing}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskJDMatch, RecordID: "m1"})
	require.NoError(t, err)

	m := f.matches.matches["m1"]
	assert.Equal(t, domain.StatusSuccess, m.Status)
	assert.Equal(t, "SUCCESS", m.Payload["status"])
	assert.Equal(t, f.matcher.result, m.Payload["match"])
}

func TestJDMatchErrorPayloadMeansFailed(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u6", "resume.pdf", goodResume())
	f.matcher.result = map[string]any{"error": "JD match analysis failed: boom"}
	f.matches.matches["m2"] = domain.JDMatch{ID: "m2", UploadID: "u6", JDText: "Go engineer", Status: domain.StatusProcessing}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskJDMatch, RecordID: "m2"})
	require.NoError(t, err)

	m := f.matches.matches["m2"]
	assert.Equal(t, domain.StatusFailed, m.Status)
	assert.Equal(t, "FAILED", m.Payload["status"])
}

func TestJDMatchUnsupportedTypeSkipsAI(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u10", "resume.txt", "plain text resume")
	f.matches.matches["m4"] = domain.JDMatch{ID: "m4", UploadID: "u10", JDText: "Go engineer", Status: domain.StatusProcessing}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskJDMatch, RecordID: "m4"})
	require.NoError(t, err)

	m := f.matches.matches["m4"]
	assert.Equal(t, domain.StatusFailed, m.Status)
	assert.Equal(t, "FAILED", m.Payload["status"])
	assert.Contains(t, m.Payload["error"], "Unsupported file type")
	assert.Zero(t, f.matcher.calls, "AI must not run for unsupported types")
}

func TestJDMatchNormalizesJDText(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u11", "resume.pdf", goodResume())
	f.matches.matches["m5"] = domain.JDMatch{ID: "m5", UploadID: "u11", JDText: "• Go engineer – remote", Status: domain.StatusProcessing}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskJDMatch, RecordID: "m5"})
	require.NoError(t, err)

	assert.Equal(t, "- Go engineer - remote", f.matcher.gotJD)
}

func TestJDMatchTerminalRecordIsNotRedone(t *testing.T) {
	t.Parallel()
	f := newFixture()
	done := map[string]any{"status": "SUCCESS", "match": map[string]any{"total_score": 55.0}}
	f.matches.matches["m3"] = domain.JDMatch{ID: "m3", UploadID: "missing", Status: domain.StatusSuccess, Payload: done}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskJDMatch, RecordID: "m3"})
	require.NoError(t, err)
	assert.Equal(t, done, f.matches.matches["m3"].Payload)
}

func TestLatexSuccessStoresPDF(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u7", "resume.pdf", goodResume())
	f.runs.runs["g1"] = domain.LatexGeneration{
		ID:          "g1",
		UploadID:    "u7",
		Suggestions: map[string]any{"ats_score": 82.0},
		Payload:     map[string]any{"status": "PROCESSING"},
	}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskLatexGenerate, RecordID: "g1"})
	require.NoError(t, err)

	g := f.runs.runs["g1"]
	assert.Equal(t, "SUCCESS", g.Payload["status"])
	assert.Equal(t, f.latex.source, g.LatexSource)
	assert.Equal(t, "latex/g1/resume.pdf", g.PDFObjectKey)
	assert.Equal(t, f.compiler.pdf, f.store.objects["latex/g1/resume.pdf"])
	uri, _ := g.Payload["pdf_data_uri"].(string)
	assert.True(t, strings.HasPrefix(uri, "data:application/pdf;base64,"))
}

func TestLatexGenerationFailure(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u8", "resume.pdf", goodResume())
	f.latex.err = errors.New("model returned prose")
	f.runs.runs["g2"] = domain.LatexGeneration{ID: "g2", UploadID: "u8", Payload: map[string]any{"status": "PROCESSING"}}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskLatexGenerate, RecordID: "g2"})
	require.NoError(t, err)

	g := f.runs.runs["g2"]
	assert.Equal(t, "FAILED", g.Payload["status"])
	assert.Contains(t, g.Payload["error"], "LaTeX generation failed")
}

func TestLatexCompileFailure(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.seedUpload(t, "u9", "resume.pdf", goodResume())
	f.compiler.err = errors.New("tectonic compile failed: exit status 1: ! Undefined control sequence")
	f.runs.runs["g3"] = domain.LatexGeneration{ID: "g3", UploadID: "u9", Payload: map[string]any{"status": "PROCESSING"}}

	err := f.p.Handle(context.Background(), domain.Task{Kind: domain.TaskLatexGenerate, RecordID: "g3"})
	require.NoError(t, err)

	g := f.runs.runs["g3"]
	assert.Equal(t, "FAILED", g.Payload["status"])
	assert.Contains(t, g.Payload["error"], "PDF compilation failed")
	assert.Contains(t, g.Payload["error"], "Undefined control sequence")
	assert.Equal(t, f.latex.source, g.LatexSource, "generated source must survive a compile failure")
	assert.Empty(t, f.store.objects["latex/g3/resume.pdf"])
}

func TestUnknownTaskKind(t *testing.T) {
	t.Parallel()
	f := newFixture()
	err := f.p.Handle(context.Background(), domain.Task{Kind: "mystery", RecordID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
