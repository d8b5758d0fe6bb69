// Package ai holds the LLM providers and the tolerant response parsing
// that recovers structured JSON from unreliable model output.
package ai

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

const rawPreviewLimit = 1000

var (
	preambleRe = regexp.MustCompile(`(?is)^.*?RAW\s*GPT.*?:`)
	fenceRe    = regexp.MustCompile("(?i)```(?:json)?")
)

// Clean recovers a structured mapping from an arbitrary model response.
// The input may already be a map, or free text with markdown fences,
// prose preambles, or Python-dict style syntax. It never returns an
// error: any parse failure degrades to a fallback object with "error",
// "debug" and a capped "raw_preview".
func Clean(raw any) map[string]any {
	if raw == nil {
		return map[string]any{}
	}
	if m, ok := raw.(map[string]any); ok {
		return m
	}

	text := strings.TrimSpace(fmt.Sprintf("%v", raw))
	text = preambleRe.ReplaceAllString(text, "")
	text = fenceRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r", "\n")

	// Doubly-encoded payload: the whole object arrived as one JSON string.
	if strings.HasPrefix(strings.TrimSpace(text), `"`) {
		var inner string
		if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &inner); err == nil {
			text = inner
		}
	}

	block, err := balancedObject(text)
	if err != nil {
		return fallback(raw, err)
	}

	parsed, err := parseBlock(block)
	if err != nil {
		return fallback(raw, err)
	}
	return parsed
}

// balancedObject finds the first '{' and scans forward tracking string
// and escape state to the matching '}'. Truncating at the last '}' is
// not enough: models append trailing commentary after the object.
func balancedObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", fmt.Errorf("no opening '{' found in model output")
	}
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(text[start : i+1]), nil
			}
		}
	}
	return "", fmt.Errorf("no balanced '}' found for JSON object")
}

func parseBlock(block string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(block), &v); err != nil {
		pv, perr := parsePythonish(block)
		if perr != nil {
			return nil, fmt.Errorf("failed to parse JSON or Python-like dict")
		}
		v = pv
	}

	// Doubly-encoded payload: the object itself arrived as a string.
	if s, ok := v.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			v = inner
		}
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parsed value is not an object")
	}
	return m, nil
}

// parsePythonish retries the block after rewriting Python literal
// syntax (single-quoted strings, True/False/None) into JSON.
func parsePythonish(block string) (any, error) {
	var b strings.Builder
	b.Grow(len(block))
	inSingle := false
	inDouble := false
	escape := false
	for i := 0; i < len(block); i++ {
		ch := block[i]
		if escape {
			b.WriteByte(ch)
			escape = false
			continue
		}
		switch {
		case ch == '\\' && (inSingle || inDouble):
			b.WriteByte(ch)
			escape = true
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteByte('"')
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteByte(ch)
		case inSingle || inDouble:
			b.WriteByte(ch)
		case ch == 'T' && strings.HasPrefix(block[i:], "True"):
			b.WriteString("true")
			i += 3
		case ch == 'F' && strings.HasPrefix(block[i:], "False"):
			b.WriteString("false")
			i += 4
		case ch == 'N' && strings.HasPrefix(block[i:], "None"):
			b.WriteString("null")
			i += 3
		default:
			b.WriteByte(ch)
		}
	}
	var v any
	if err := json.Unmarshal([]byte(b.String()), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func fallback(raw any, cause error) map[string]any {
	preview := fmt.Sprintf("%v", raw)
	if len(preview) > rawPreviewLimit {
		preview = preview[:rawPreviewLimit] + "..."
	}
	slog.Warn("model output cleaning failed", slog.Any("error", cause), slog.Int("raw_len", len(fmt.Sprintf("%v", raw))))
	return map[string]any{
		"error":       "Failed to decode model output",
		"debug":       cause.Error(),
		"raw_preview": preview,
	}
}
