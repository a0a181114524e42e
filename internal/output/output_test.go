package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_NoIconsOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("indexed")
	w.Warning("skipped a file")
	w.Error("failed")

	out := buf.String()
	assert.Contains(t, out, "indexed")
	assert.Contains(t, out, "skipped a file")
	assert.Contains(t, out, "failed")
	assert.NotContains(t, out, "✅")
	assert.NotContains(t, out, "❌")
}

func TestWriter_Statusf(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Statusf("📄", "Indexing %d document(s)", 3)
	assert.Contains(t, buf.String(), "Indexing 3 document(s)")
}

func TestWriter_Progress(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Progress(5, 10, "embedding")
	assert.Contains(t, buf.String(), "50%")

	w.Progress(10, 10, "done")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, 10, len([]rune(renderProgressBar(5, 10, 10))))
	assert.Equal(t, strings.Repeat("█", 10), renderProgressBar(10, 10, 10))
	assert.Equal(t, strings.Repeat("░", 10), renderProgressBar(0, 10, 10))
}
