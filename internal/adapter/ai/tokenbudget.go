package ai

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// TruncateToTokenBudget trims text to at most budget tokens so oversized
// resumes cannot blow up prompt cost. Uses the cl100k_base encoding; if
// the encoder is unavailable it falls back to a 4-chars-per-token
// estimate.
func TruncateToTokenBudget(text string, budget int) string {
	if budget <= 0 || text == "" {
		return text
	}
	encOnce.Do(func() {
		var err error
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			slog.Warn("tiktoken encoding unavailable, using estimate", slog.Any("error", err))
		}
	})
	if enc == nil {
		limit := budget * 4
		if len(text) <= limit {
			return text
		}
		runes := []rune(text)
		if len(runes) <= limit {
			return text
		}
		return string(runes[:limit])
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= budget {
		return text
	}
	return enc.Decode(tokens[:budget])
}
