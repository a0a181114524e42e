package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdex/docdex/internal/chunk"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/store"
	"github.com/docdex/docdex/internal/token"
)

func newTestEngine(t *testing.T, st *store.Store) *Engine {
	t.Helper()

	if st == nil {
		var err error
		st, err = store.New("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
	}

	chunker, err := chunk.NewSlidingWindow(token.NewWordTokenizer(), 3, 2)
	require.NoError(t, err)

	e, err := New(context.Background(), Config{
		Store:    st,
		Embedder: embed.NewStaticEmbedder(),
		Chunker:  chunker,
	})
	require.NoError(t, err)
	return e
}

func TestEngine_ApplyUpdatesScenario(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	err := e.ApplyUpdates(ctx, map[string]string{
		"doc1": "The cat sat.\nThe dog ran.",
	})
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Vectors)
}

func TestEngine_ApplyUpdatesIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	updates := map[string]string{"doc1": "The cat sat.\nThe dog ran."}
	require.NoError(t, e.ApplyUpdates(ctx, updates))
	require.NoError(t, e.ApplyUpdates(ctx, updates))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Vectors)
}

func TestEngine_ApplyUpdatesDeduplicatesAcrossDocuments(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	require.NoError(t, e.ApplyUpdates(ctx, map[string]string{"a": "The cat sat."}))
	require.NoError(t, e.ApplyUpdates(ctx, map[string]string{
		"b": "The cat sat.\nThe dog ran.",
	}))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
}

func TestEngine_ApplyUpdatesEmptyMapping(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.ApplyUpdates(context.Background(), nil))

	stats, err := e.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
}

func TestEngine_QueryExactMatch(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	require.NoError(t, e.ApplyUpdates(ctx, map[string]string{
		"doc1": "The cat sat.\nThe dog ran.",
	}))

	// An exact chunk text embeds to the identical vector, so its score is 1.0
	results, err := e.Query(ctx, "the cat sat", QueryOptions{MinSimilarity: 0.99})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the cat sat", results[0])
}

func TestEngine_QueryEmptyEngine(t *testing.T) {
	e := newTestEngine(t, nil)

	results, err := e.Query(context.Background(), "anything at all", QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_QueryThresholdFiltersAll(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	require.NoError(t, e.ApplyUpdates(ctx, map[string]string{"doc1": "The cat sat."}))

	// An impossible threshold returns nothing rather than erroring
	results, err := e.Query(ctx, "unrelated topic entirely", QueryOptions{MinSimilarity: 1.1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docdex.db")
	ctx := context.Background()

	st, err := store.New(path)
	require.NoError(t, err)

	e := newTestEngine(t, st)
	require.NoError(t, e.ApplyUpdates(ctx, map[string]string{
		"doc1": "The cat sat.\nThe dog ran.",
	}))
	require.NoError(t, st.Close())

	st2, err := store.New(path)
	require.NoError(t, err)
	defer func() { _ = st2.Close() }()

	restored := newTestEngine(t, st2)
	stats, err := restored.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 2, stats.Vectors)

	results, err := restored.Query(ctx, "the dog ran", QueryOptions{MinSimilarity: 0.99})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "the dog ran", results[0])
}

func TestEngine_DiscoverUpdates(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "note.txt"), []byte("The cat sat."), 0o644))

	updates, err := e.DiscoverUpdates(ctx, folder)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "The cat sat.", updates["note.txt"])

	// Unchanged folder yields an empty mapping
	updates, err = e.DiscoverUpdates(ctx, folder)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestEngine_DiscoverUpdatesDetectsModification(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	folder := t.TempDir()
	path := filepath.Join(folder, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("old content"), 0o644))

	_, err := e.DiscoverUpdates(ctx, folder)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("new content"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	updates, err := e.DiscoverUpdates(ctx, folder)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "new content", updates["note.txt"])
}

func TestEngine_DiscoverUpdatesMissingFolder(t *testing.T) {
	e := newTestEngine(t, nil)

	updates, err := e.DiscoverUpdates(context.Background(), filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestEngine_StatsCold(t *testing.T) {
	e := newTestEngine(t, nil)

	stats, err := e.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Chunks)
	assert.Zero(t, stats.Vectors)
	assert.Empty(t, stats.Backend)
	assert.NotEmpty(t, stats.Model)
}
