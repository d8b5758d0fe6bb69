package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Analyze    usecase.AnalyzeService
	Matches    usecase.JDMatchService
	Latex      usecase.LatexService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	QueueCheck func(ctx context.Context) error
	StoreCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, analyze usecase.AnalyzeService, matches usecase.JDMatchService, latex usecase.LatexService) *Server {
	return &Server{Cfg: cfg, Analyze: analyze, Matches: matches, Latex: latex}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// optionalUserID reads the caller-supplied user id; empty means anonymous.
func optionalUserID(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// UploadResumeHandler accepts a multipart resume file and enqueues the
// scoring pipeline. Any file extension is accepted here; unsupported types
// are failed terminally by the worker so the client still gets a polled
// FAILED record instead of a rejected request.
func (s *Server) UploadResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code:    "INVALID_ARGUMENT",
					Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("resume")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume file required", domain.ErrInvalidArgument), map[string]string{"field": "resume"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: resume read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}

		mime := mimetype.Detect(data)
		id, err := s.Analyze.Submit(r.Context(), optionalUserID(r.FormValue("user_id")), header.Filename, mime.String(), int64(len(data)), bytes.NewReader(data))
		if err != nil {
			writeError(w, r, fmt.Errorf("upload: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"resume_id": id,
			"job_id":    id,
			"status":    string(domain.StatusProcessing),
		})
	}
}

// AnalysisResultHandler returns the persisted analysis payload for polling.
func (s *Server) AnalysisResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		payload, err := s.Analyze.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

// JDMatchSubmitHandler creates a jd_match record and enqueues the matcher.
func (s *Server) JDMatchSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			ResumeID string `json:"resume_id" validate:"required"`
			JDText   string `json:"jd_text" validate:"required,max=20000"`
			UserID   string `json:"user_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		id, err := s.Matches.Submit(r.Context(), optionalUserID(req.UserID), req.ResumeID, req.JDText)
		if err != nil {
			writeError(w, r, fmt.Errorf("jd match submit: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.StatusProcessing)})
	}
}

// JDMatchResultHandler returns the persisted match payload for polling.
func (s *Server) JDMatchResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		m, err := s.Matches.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, m.Payload)
	}
}

// LatexSubmitHandler starts a LaTeX regeneration run. The resume's analysis
// must already be SUCCESS; its suggestions are snapshotted at this point.
func (s *Server) LatexSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			ResumeID string `json:"resume_id" validate:"required"`
			UserID   string `json:"user_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		id, err := s.Latex.Submit(r.Context(), optionalUserID(req.UserID), req.ResumeID)
		if err != nil {
			writeError(w, r, fmt.Errorf("latex submit: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.StatusProcessing)})
	}
}

// LatexResultHandler returns the persisted generation payload for polling.
func (s *Server) LatexResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		g, err := s.Latex.Fetch(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, g.Payload)
	}
}

// LatexPDFHandler streams the compiled PDF artifact.
func (s *Server) LatexPDFHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		pdf, err := s.Latex.FetchPDF(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="resume.pdf"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	}
}

// ReadyzHandler probes the backing services this process depends on.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	probes := []struct {
		name string
		fn   func() func(ctx context.Context) error
	}{
		{"db", func() func(ctx context.Context) error { return s.DBCheck }},
		{"redis", func() func(ctx context.Context) error { return s.RedisCheck }},
		{"queue", func() func(ctx context.Context) error { return s.QueueCheck }},
		{"store", func() func(ctx context.Context) error { return s.StoreCheck }},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, len(probes))
		ok := true
		for _, p := range probes {
			fn := p.fn()
			if fn == nil {
				continue
			}
			c := check{Name: p.name, OK: true}
			if err := fn(ctx); err != nil {
				c.OK = false
				c.Details = err.Error()
				ok = false
			}
			checks = append(checks, c)
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
