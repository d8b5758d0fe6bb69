// Package domain holds the core entities and ports of the resume analyzer.
package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrNotReady        = errors.New("not ready")
	ErrInternal        = errors.New("internal error")
)

// Status values written into every result payload's "status" field.
// PROCESSING is the only non-terminal status; once a terminal status is
// persisted the record is not mutated again.
type Status string

const (
	StatusProcessing     Status = "PROCESSING"
	StatusSuccess        Status = "SUCCESS"
	StatusFailed         Status = "FAILED"
	StatusFailedPrecheck Status = "FAILED_PRECHECK"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusFailedPrecheck
}

// AnalysisRetention is the window after which an analysis is eligible for
// cleanup by the retention job.
const AnalysisRetention = 30 * 24 * time.Hour

// Upload is a stored resume file reference. The raw bytes live in the object
// store under ObjectKey; only metadata is kept here.
type Upload struct {
	ID        string
	UserID    *string
	ObjectKey string
	Filename  string
	MIME      string
	Size      int64
	CreatedAt time.Time
}

// Analysis holds the solo-scoring result bundle for an upload (one-to-one).
type Analysis struct {
	ID        string
	UploadID  string
	Payload   map[string]any
	CreatedAt time.Time
}

// Expired reports whether the analysis has outlived the retention window.
func (a Analysis) Expired(now time.Time) bool {
	return now.Sub(a.CreatedAt) > AnalysisRetention
}

// JDMatch compares an uploaded resume against a pasted job description.
// Payload["status"] and the Status column are written together and must agree.
type JDMatch struct {
	ID        string
	UserID    *string
	UploadID  string
	JDText    string
	Payload   map[string]any
	Status    Status
	CreatedAt time.Time
}

// LatexGeneration tracks one LaTeX resume regeneration run. Suggestions are a
// snapshot of the upload's ai_analysis taken at submission time.
type LatexGeneration struct {
	ID           string
	UserID       *string
	UploadID     string
	Suggestions  map[string]any
	LatexSource  string
	PDFObjectKey string
	Payload      map[string]any
	CreatedAt    time.Time
}

// TaskKind selects which orchestrator a queued task runs.
type TaskKind string

const (
	TaskResumeAnalyze TaskKind = "resume_analyze"
	TaskJDMatch       TaskKind = "jd_match"
	TaskLatexGenerate TaskKind = "latex_generate"
)

// Task is the queue payload: an orchestrator kind plus the id of the record
// it operates on.
type Task struct {
	Kind     TaskKind `json:"kind"`
	RecordID string   `json:"record_id"`
}

// Repositories (ports)

type UploadRepository interface {
	Create(ctx Context, u Upload) (string, error)
	Get(ctx Context, id string) (Upload, error)
}

type AnalysisRepository interface {
	Upsert(ctx Context, a Analysis) error
	GetByUploadID(ctx Context, uploadID string) (Analysis, error)
}

type JDMatchRepository interface {
	Create(ctx Context, m JDMatch) (string, error)
	Get(ctx Context, id string) (JDMatch, error)
	// UpdateResult writes the payload and the status column in one statement
	// so the two representations cannot drift.
	UpdateResult(ctx Context, id string, payload map[string]any, status Status) error
}

type LatexRepository interface {
	Create(ctx Context, g LatexGeneration) (string, error)
	Get(ctx Context, id string) (LatexGeneration, error)
	UpdateResult(ctx Context, id string, latexSource, pdfObjectKey string, payload map[string]any) error
}

// Queue (port)

type Queue interface {
	Enqueue(ctx Context, t Task) (string, error)
}

// FileStore stores and retrieves raw upload and artifact bytes by key.
type FileStore interface {
	Put(ctx Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx Context, key string) ([]byte, error)
}

// Extractor converts a stored document into plain text. It never fails:
// extraction problems are embedded as bracketed diagnostic strings so
// downstream stages always receive text.
type Extractor interface {
	Extract(ctx Context, filename string, data []byte) string
}

// AI provider ports. Scoring and matching always return a payload map (errors
// are folded into {"error": ...} objects); LaTeX generation returns an error
// because a failed generation cannot degrade into usable output.

type ScoringClient interface {
	ScoreResume(ctx Context, text string) map[string]any
}

type MatchClient interface {
	MatchResume(ctx Context, resumeText, jdText string) map[string]any
}

type LatexClient interface {
	GenerateLatex(ctx Context, resumeText string, suggestions map[string]any) (string, error)
}

// TexCompiler turns LaTeX source into PDF bytes. Compile failures carry the
// engine's diagnostic output and must not be swallowed.
type TexCompiler interface {
	Compile(ctx Context, source string) ([]byte, error)
}

// Context is an alias to context.Context kept for port signatures.
type Context = context.Context
