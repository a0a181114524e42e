package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args and returns captured stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// setupProject chdirs into a temp project with a static-embedder config and
// a docs folder, and returns the docs folder path.
func setupProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docs, 0o755))

	cfg := `
paths:
  data_dir: ` + filepath.Join(dir, "data") + `
  docs_folder: docs
embeddings:
  provider: static
logging:
  file: ` + filepath.Join(dir, "docdex.log") + `
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".docdex.yaml"), []byte(cfg), 0o644))

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return docs
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docdex")

	out, err = execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(out))
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"go_version"`)
}

func TestIndexSearchStatusFlow(t *testing.T) {
	docs := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(docs, "note.txt"),
		[]byte("The cat sat on the mat."), 0o644))

	out, err := execute(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 document(s)")

	// Second run finds nothing new
	out, err = execute(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	// The exact chunk text embeds identically, so it always clears the threshold
	out, err = execute(t, "search", "the cat sat on the mat.", "--min-score", "0.99")
	require.NoError(t, err)
	assert.Contains(t, out, "the cat sat on the mat")

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:  1")
	assert.Contains(t, out, "Chunks:     1")
}

func TestSearchCommand_EmptyIndex(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "search", "anything")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching passages")
}

func TestIndexCommand_MissingFolder(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "index", "does-not-exist")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestStatusCommand_JSON(t *testing.T) {
	setupProject(t)

	out, err := execute(t, "status", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"chunks"`)
	assert.Contains(t, out, `"model"`)
}
