package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ocrPage rasterizes a single PDF page with pdftoppm and runs tesseract
// over the result. Both binaries must be on PATH (or configured).
func (e *Extractor) ocrPage(ctx context.Context, pdfPath string, page int) (string, error) {
	if e.pdftoppmBin == "" || e.tesseractBin == "" {
		return "", fmt.Errorf("ocr disabled: pdftoppm/tesseract not configured")
	}

	dir, err := os.MkdirTemp("", "resume-ocr-page-*")
	if err != nil {
		return "", fmt.Errorf("op=ocr: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	pageArg := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, e.pdftoppmBin,
		"-r", strconv.Itoa(e.ocrDPI),
		"-f", pageArg, "-l", pageArg,
		"-png", pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("op=ocr pdftoppm page=%d: %w: %s", page, err, strings.TrimSpace(stderr.String()))
	}

	images, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("op=ocr page=%d: no rasterized output", page)
	}
	sort.Strings(images)

	var out strings.Builder
	for _, img := range images {
		tcmd := exec.CommandContext(ctx, e.tesseractBin, img, "stdout")
		var stdout, terr bytes.Buffer
		tcmd.Stdout = &stdout
		tcmd.Stderr = &terr
		if err := tcmd.Run(); err != nil {
			return "", fmt.Errorf("op=ocr tesseract page=%d: %w: %s", page, err, strings.TrimSpace(terr.String()))
		}
		out.WriteString(stdout.String())
	}
	return out.String(), nil
}
