package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

//go:embed prompts/latex_system.txt
var latexSystemPrompt string

//go:embed prompts/latex_template.tex
var latexTemplate string

// LatexProvider rewrites a resume into LaTeX source using the cheaper
// chat model. Unlike the scoring providers this one returns an error:
// the pipeline needs to distinguish a failed generation from a failed
// compile.
type LatexProvider struct {
	cfg    config.Config
	client *OpenAIClient
}

func NewLatex(cfg config.Config, client *OpenAIClient) *LatexProvider {
	return &LatexProvider{cfg: cfg, client: client}
}

// GenerateLatex produces compilable LaTeX source from the raw resume
// text and the improvement suggestions from a prior analysis.
func (p *LatexProvider) GenerateLatex(ctx domain.Context, resumeText string, suggestions map[string]any) (string, error) {
	if p.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}

	system := strings.ReplaceAll(latexSystemPrompt, "{{TEMPLATE}}", latexTemplate)

	suggestionsJSON, err := json.MarshalIndent(suggestions, "", "  ")
	if err != nil {
		suggestionsJSON = []byte("{}")
	}
	resumeText = TruncateToTokenBudget(resumeText, p.cfg.PromptTokenBudget)
	user := fmt.Sprintf("RAW RESUME TEXT:\n%s\n\nATS SCORE AND SUGGESTIONS:\n%s", resumeText, suggestionsJSON)

	content, err := p.client.ChatJSON(ctx, p.cfg.OpenAILatexModel, system, user, 4096)
	if err != nil {
		return "", fmt.Errorf("op=ai.GenerateLatex: %w", err)
	}

	src := stripLatexFences(content)
	if !strings.Contains(src, `\documentclass`) {
		return "", fmt.Errorf("%w: model did not return LaTeX source", domain.ErrInternal)
	}
	return src, nil
}

// stripLatexFences removes accidental markdown fences around the source.
func stripLatexFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```latex")
	s = strings.TrimPrefix(s, "```tex")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
