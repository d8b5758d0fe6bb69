// Package pipeline runs the three analysis orchestrators on the worker:
// solo resume scoring, job-description matching and LaTeX regeneration.
// Every run ends with a terminal status on the record; nothing may stay
// stuck at PROCESSING.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
)

// Pipeline holds every dependency the orchestrators share.
type Pipeline struct {
	Uploads   domain.UploadRepository
	Analyses  domain.AnalysisRepository
	Matches   domain.JDMatchRepository
	Runs      domain.LatexRepository
	Store     domain.FileStore
	Extractor domain.Extractor
	Scoring   domain.ScoringClient
	Matching  domain.MatchClient
	Latex     domain.LatexClient
	Compiler  domain.TexCompiler
}

// Handle dispatches one queued task to its orchestrator.
func (p *Pipeline) Handle(ctx domain.Context, t domain.Task) error {
	kind := string(t.Kind)
	ctx, span := otel.Tracer("pipeline").Start(ctx, "pipeline.handle",
		trace.WithAttributes(
			attribute.String("task.kind", kind),
			attribute.String("task.record_id", t.RecordID),
		))
	defer span.End()

	observability.StartProcessingJob(kind)
	start := time.Now()

	var status domain.Status
	var err error
	switch t.Kind {
	case domain.TaskResumeAnalyze:
		status, err = p.runAnalyze(ctx, t.RecordID)
	case domain.TaskJDMatch:
		status, err = p.runJDMatch(ctx, t.RecordID)
	case domain.TaskLatexGenerate:
		status, err = p.runLatex(ctx, t.RecordID)
	default:
		observability.FinishJob(kind, "dropped")
		return fmt.Errorf("%w: unknown task kind %q", domain.ErrInvalidArgument, t.Kind)
	}

	observability.FinishJob(kind, string(status))
	observability.ObserveStage("pipeline."+kind, time.Since(start))
	if err != nil {
		return fmt.Errorf("op=pipeline.Handle kind=%s record=%s: %w", kind, t.RecordID, err)
	}
	slog.Info("task finished",
		slog.String("kind", kind),
		slog.String("record_id", t.RecordID),
		slog.String("status", string(status)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// extractUpload pulls the stored file and turns it into normalized text.
func (p *Pipeline) extractUpload(ctx domain.Context, u domain.Upload) (string, error) {
	data, err := p.Store.Get(ctx, u.ObjectKey)
	if err != nil {
		return "", fmt.Errorf("load object %s: %w", u.ObjectKey, err)
	}
	start := time.Now()
	text := p.Extractor.Extract(ctx, u.Filename, data)
	observability.ObserveStage("extract", time.Since(start))
	return text, nil
}
