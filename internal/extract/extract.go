// Package extract turns uploaded resume files into plain text. It is
// deliberately resilient: extraction never returns an error, it embeds
// a bracketed diagnostic into the text instead so the pipeline can keep
// going and the caller can see what happened.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aadhil-anwer/resume-analyzer/pkg/textx"
)

// Supported reports whether the filename's extension maps to a format
// the extractor understands.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

// Extractor extracts text from PDF and DOCX payloads, shelling out to
// pdftoppm and tesseract for scanned PDF pages.
type Extractor struct {
	pdftoppmBin  string
	tesseractBin string
	ocrDPI       int
}

func New(pdftoppmBin, tesseractBin string, ocrDPI int) *Extractor {
	if ocrDPI <= 0 {
		ocrDPI = 300
	}
	return &Extractor{pdftoppmBin: pdftoppmBin, tesseractBin: tesseractBin, ocrDPI: ocrDPI}
}

// Extract dispatches on the file extension and normalizes the result.
// Unsupported extensions yield an empty string; callers decide how to
// surface that.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) string {
	var raw string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		raw = e.extractPDF(ctx, data)
	case ".docx":
		raw = extractDOCX(data)
	default:
		slog.Warn("extract: unsupported extension", slog.String("filename", filename))
		return ""
	}
	return textx.Normalize(raw)
}

func diag(kind string, err any) string {
	return fmt.Sprintf("[ERROR extracting %s text: %v]", kind, err)
}
