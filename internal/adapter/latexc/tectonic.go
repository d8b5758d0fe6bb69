// Package latexc compiles LaTeX source to PDF by shelling out to
// tectonic. No shell escape, everything runs in a throwaway directory.
package latexc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Compiler runs tectonic with a hard timeout per compile.
type Compiler struct {
	bin     string
	timeout time.Duration
}

func New(bin string, timeout time.Duration) *Compiler {
	if bin == "" {
		bin = "tectonic"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Compiler{bin: bin, timeout: timeout}
}

// Compile writes the source to a temp dir, runs tectonic and returns
// the PDF bytes. Compile errors carry the tectonic stderr so callers
// can report what in the source failed.
func (c *Compiler) Compile(ctx context.Context, texSource string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "resume-tex-*")
	if err != nil {
		return nil, fmt.Errorf("op=latexc.Compile: %w", err)
	}
	defer os.RemoveAll(dir)

	texPath := filepath.Join(dir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(texSource), 0o600); err != nil {
		return nil, fmt.Errorf("op=latexc.Compile: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, c.bin, texPath, "--outdir", dir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tectonic compile failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "resume.pdf"))
	if err != nil {
		return nil, fmt.Errorf("op=latexc.Compile read output: %w", err)
	}
	return pdf, nil
}
