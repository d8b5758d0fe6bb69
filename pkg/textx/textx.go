// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

var punctReplacer = strings.NewReplacer(
	"•", "-", // bullet
	"●", "-", // black circle
	"‣", "-", // triangular bullet
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	" ", " ",
)

// Normalize canonicalizes bullets, dashes, quotes and spacing so downstream
// parsing sees consistent ASCII punctuation. Idempotent: applying it twice
// yields the same string as applying it once.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = punctReplacer.Replace(s)
	return strings.TrimSpace(s)
}

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
