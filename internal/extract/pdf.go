package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF walks the document page by page with three levels of
// fallback: direct text, then positional reflow for multi-column or
// sparse layouts, then OCR for scanned pages. The underlying library
// panics on some malformed files, so the whole walk runs under recover
// and degrades to a bracketed diagnostic.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("extract: pdf parser panicked", slog.Any("panic", r))
			out = diag("PDF", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return diag("PDF", err)
	}

	// Lazily materialized only if a page needs OCR.
	var tmpPDF string
	defer func() {
		if tmpPDF != "" {
			_ = os.RemoveAll(filepath.Dir(tmpPDF))
		}
	}()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			pageText = ""
		}

		// Short output usually means a multi-column layout the linear
		// walk mangled; rebuild lines from glyph positions.
		if len(strings.TrimSpace(pageText)) < 40 {
			if reflowed := reflowPage(page); strings.TrimSpace(reflowed) != "" {
				pageText = reflowed
			}
		}

		if strings.TrimSpace(pageText) == "" {
			if tmpPDF == "" {
				tmpPDF, err = writeTempPDF(data)
				if err != nil {
					pages = append(pages, fmt.Sprintf("[OCR failed on page %d]", i))
					continue
				}
			}
			ocrText, err := e.ocrPage(ctx, tmpPDF, i)
			if err != nil || strings.TrimSpace(ocrText) == "" {
				if err != nil {
					slog.Warn("extract: ocr failed", slog.Int("page", i), slog.Any("error", err))
				}
				pageText = fmt.Sprintf("[OCR failed on page %d]", i)
			} else {
				pageText = strings.TrimSpace(ocrText)
			}
		}

		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n")
}

// reflowPage reconstructs reading order from glyph coordinates: runs
// sharing a baseline form a line, lines ordered top to bottom.
func reflowPage(page pdf.Page) string {
	content := page.Content()
	if len(content.Text) == 0 {
		return ""
	}

	type run struct {
		x float64
		s string
	}
	rows := map[int][]run{}
	var ys []int
	for _, t := range content.Text {
		// PDF y grows upward; bucket to the nearest couple of points so
		// slightly misaligned runs still share a line.
		y := int(t.Y / 2)
		if _, ok := rows[y]; !ok {
			ys = append(ys, y)
		}
		rows[y] = append(rows[y], run{x: t.X, s: t.S})
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	var b strings.Builder
	for _, y := range ys {
		line := rows[y]
		sort.Slice(line, func(i, j int) bool { return line[i].x < line[j].x })
		var prev float64
		for i, r := range line {
			if i > 0 && r.x-prev > 1 {
				b.WriteString(" ")
			}
			b.WriteString(r.s)
			prev = r.x
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func writeTempPDF(data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "resume-ocr-*")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "page.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return path, nil
}
