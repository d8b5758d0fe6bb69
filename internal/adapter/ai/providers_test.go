package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadhil-anwer/resume-analyzer/internal/config"
)

func TestScoreResume_OfflineFallback(t *testing.T) {
	t.Parallel()
	p := NewScoring(config.Config{}, nil)
	out := p.ScoreResume(context.Background(), "some resume text")
	require.Contains(t, out, "error")
	fb, ok := out["offline_fallback"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0, fb["ats_score"])
	assert.Equal(t, 0.0, fb["confidence_score"])
}

func TestMatchResume_MissingKey(t *testing.T) {
	t.Parallel()
	cfg := config.Config{}
	p := NewMatch(cfg, NewOpenAI(cfg, nil))
	out := p.MatchResume(context.Background(), "resume", "jd")
	assert.Equal(t, "Missing OPENAI_API_KEY", out["error"])
}

func TestGenerateLatex_MissingKey(t *testing.T) {
	t.Parallel()
	cfg := config.Config{}
	p := NewLatex(cfg, NewOpenAI(cfg, nil))
	_, err := p.GenerateLatex(context.Background(), "resume", nil)
	require.Error(t, err)
}

func TestStripLatexFences(t *testing.T) {
	t.Parallel()
	in := "```latex\n\\documentclass{article}\n\\begin{document}x\\end{document}\n```"
	got := stripLatexFences(in)
	assert.True(t, len(got) > 0)
	assert.NotContains(t, got, "```")
	assert.Contains(t, got, `\documentclass`)
}

func TestTruncateToTokenBudget_ShortTextUntouched(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", TruncateToTokenBudget("short", 100))
	assert.Equal(t, "", TruncateToTokenBudget("", 100))
	assert.Equal(t, "anything", TruncateToTokenBudget("anything", 0))
}
