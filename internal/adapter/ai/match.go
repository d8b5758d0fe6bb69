package ai

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

//go:embed prompts/match_system.txt
var matchSystemPrompt string

// MatchProvider compares a resume against a job description using the
// OpenAI-compatible chat endpoint. Like scoring, failures surface as an
// error key in the payload rather than an error return.
type MatchProvider struct {
	cfg    config.Config
	client *OpenAIClient
}

func NewMatch(cfg config.Config, client *OpenAIClient) *MatchProvider {
	return &MatchProvider{cfg: cfg, client: client}
}

// MatchResume returns the 17-criteria evaluation payload.
func (p *MatchProvider) MatchResume(ctx domain.Context, resumeText, jdText string) map[string]any {
	if p.cfg.OpenAIAPIKey == "" {
		return map[string]any{"error": "Missing OPENAI_API_KEY"}
	}

	today := time.Now().Format("January 2, 2006")
	system := strings.ReplaceAll(matchSystemPrompt, "{{DATE}}", today)

	resumeText = TruncateToTokenBudget(resumeText, p.cfg.PromptTokenBudget)
	jdText = TruncateToTokenBudget(jdText, p.cfg.PromptTokenBudget)
	user := fmt.Sprintf("RESUME TEXT:\n%s\n\nJOB DESCRIPTION TEXT:\n%s\n\nAnalyze the resume against the job description using the rules in the system prompt. Return ONLY the JSON object.", resumeText, jdText)

	content, err := p.client.ChatJSON(ctx, p.cfg.OpenAIMatchModel, system, user, 1500)
	if err != nil {
		slog.Error("jd match call failed", slog.Any("error", err))
		return map[string]any{"error": fmt.Sprintf("JD match analysis failed: %v", err)}
	}
	return Clean(content)
}
