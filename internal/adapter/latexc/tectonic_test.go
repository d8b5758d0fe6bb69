package latexc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	c := New("", 0)
	assert.Equal(t, "tectonic", c.bin)
	assert.Equal(t, 120*time.Second, c.timeout)
}

func TestCompile_MissingBinaryErrors(t *testing.T) {
	t.Parallel()
	c := New("definitely-not-a-real-tectonic-binary", time.Second)
	_, err := c.Compile(context.Background(), `\documentclass{article}\begin{document}x\end{document}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tectonic compile failed")
}
