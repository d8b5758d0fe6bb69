package ai

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
	"github.com/aadhil-anwer/resume-analyzer/internal/observability"
)

//go:embed prompts/scoring_system.txt
var scoringSystemPrompt string

// ScoringProvider scores resumes with Gemini on Vertex AI. It satisfies
// domain.ScoringClient: it never returns an error, failures surface as
// an error key inside the payload so the pipeline can still complete.
type ScoringProvider struct {
	cfg     config.Config
	limiter Limiter

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

func NewScoring(cfg config.Config, limiter Limiter) *ScoringProvider {
	return &ScoringProvider{cfg: cfg, limiter: limiter}
}

// offlineFallback is served when no GCP project is configured so local
// development works without credentials.
func offlineFallback() map[string]any {
	return map[string]any{
		"error": "Gemini not configured. Set GCP_PROJECT_ID to enable AI analysis.",
		"offline_fallback": map[string]any{
			"ats_score":               0,
			"grammar_feedback":        "AI not configured, no grammar analysis performed.",
			"impact_feedback":         "AI not configured, no impact analysis performed.",
			"tone_feedback":           "N/A",
			"keyword_feedback":        "N/A",
			"overall_recommendations": []any{"Set the GCP_PROJECT_ID environment variable to enable full AI scoring."},
			"confidence_score":        0.0,
		},
	}
}

func (p *ScoringProvider) init(ctx domain.Context) (*genai.Client, error) {
	p.initOnce.Do(func() {
		p.client, p.initErr = genai.NewClient(ctx, p.cfg.GCPProjectID, p.cfg.GCPRegion)
	})
	return p.client, p.initErr
}

// ScoreResume sends the resume to Gemini and returns the cleaned
// structured evaluation.
func (p *ScoringProvider) ScoreResume(ctx domain.Context, resumeText string) map[string]any {
	if p.cfg.GCPProjectID == "" {
		return offlineFallback()
	}
	if p.limiter != nil {
		if err := p.limiter.Allow(ctx); err != nil {
			return map[string]any{"error": fmt.Sprintf("rate limit wait failed: %v", err)}
		}
	}

	client, err := p.init(ctx)
	if err != nil {
		slog.Error("vertex client init failed", slog.Any("error", err))
		return map[string]any{"error": fmt.Sprintf("Gemini API call failed: %v", err)}
	}

	today := time.Now().Format("January 2, 2006")
	system := strings.ReplaceAll(scoringSystemPrompt, "{{DATE}}", today)

	model := client.GenerativeModel(p.cfg.GeminiModel)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.9),
		MaxOutputTokens:  genai.Ptr[int32](8192),
	}

	resumeText = TruncateToTokenBudget(resumeText, p.cfg.PromptTokenBudget)

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text("Resume:\n"+resumeText))
	observability.AIRequestsTotal.WithLabelValues("gemini", "score").Inc()
	observability.AIRequestDuration.WithLabelValues("gemini", "score").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("gemini scoring failed", slog.Any("error", err))
		return map[string]any{"error": fmt.Sprintf("Gemini API call failed: %v", err)}
	}

	raw := responseText(resp)
	result := Clean(raw)

	// The prompt wraps output in an ai_analysis envelope; unwrap it so
	// callers see the evaluation fields directly.
	if inner, ok := result["ai_analysis"].(map[string]any); ok {
		result = inner
	}
	return result
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
