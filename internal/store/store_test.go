package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "docdex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	snap := &Snapshot{
		Backend:    "flat",
		Dimensions: 4,
		IndexData:  []byte{0x01, 0x02, 0x03},
		Chunks:     []string{"the cat sat", "the dog ran"},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	loaded, err = s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap.Backend, loaded.Backend)
	assert.Equal(t, snap.Dimensions, loaded.Dimensions)
	assert.Equal(t, snap.IndexData, loaded.IndexData)
	assert.Equal(t, snap.Chunks, loaded.Chunks)
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestStore_SaveSnapshotLatestWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &Snapshot{Backend: "flat", Dimensions: 2, IndexData: []byte("old"), Chunks: []string{"a"}}
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := &Snapshot{Backend: "flat", Dimensions: 2, IndexData: []byte("new"), Chunks: []string{"a", "b"}}
	require.NoError(t, s.SaveSnapshot(ctx, second))

	loaded, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []byte("new"), loaded.IndexData)
	assert.Equal(t, []string{"a", "b"}, loaded.Chunks)
}

func TestStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docdex.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveSnapshot(ctx, &Snapshot{
		Backend: "flat", Dimensions: 3, IndexData: []byte("persisted"), Chunks: []string{"x"},
	}))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	loaded, err := reopened.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []byte("persisted"), loaded.IndexData)
}

func TestStore_UpsertDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	doc := Document{Filename: "report.pdf", Content: "the cat sat", LastModified: base}

	changed, err := s.UpsertDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)

	// Same timestamp: no update
	changed, err = s.UpsertDocument(ctx, doc)
	require.NoError(t, err)
	assert.False(t, changed)

	// Older timestamp: no update
	stale := doc
	stale.Content = "stale content"
	stale.LastModified = base.Add(-time.Hour)
	changed, err = s.UpsertDocument(ctx, stale)
	require.NoError(t, err)
	assert.False(t, changed)

	// Newer timestamp but identical content: no update
	touched := doc
	touched.LastModified = base.Add(time.Hour)
	changed, err = s.UpsertDocument(ctx, touched)
	require.NoError(t, err)
	assert.False(t, changed)

	// Newer timestamp and new content: update
	revised := Document{Filename: "report.pdf", Content: "the dog ran", LastModified: base.Add(2 * time.Hour)}
	changed, err = s.UpsertDocument(ctx, revised)
	require.NoError(t, err)
	assert.True(t, changed)

	docs, err := s.TrackedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "the dog ran", docs["report.pdf"].Content)
	assert.Equal(t, revised.LastModified.UnixNano(), docs["report.pdf"].LastModified.UnixNano())
}

func TestStore_TrackedDocumentsEmpty(t *testing.T) {
	s := newTestStore(t)

	docs, err := s.TrackedDocuments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)

	n, err := s.DocumentCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_LockRejectsSecondWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docdex.db")

	first, err := New(path)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	_, err = New(path)
	assert.Error(t, err)
}

func TestStore_ClosedOperationsFail(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	_, err := s.LoadSnapshot(ctx)
	assert.Error(t, err)
	err = s.SaveSnapshot(ctx, &Snapshot{Backend: "flat"})
	assert.Error(t, err)
	_, err = s.UpsertDocument(ctx, Document{Filename: "f"})
	assert.Error(t, err)
}

func TestStore_InMemory(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.SaveSnapshot(context.Background(), &Snapshot{
		Backend: "flat", Dimensions: 2, IndexData: []byte("mem"), Chunks: []string{"c"},
	}))

	loaded, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []byte("mem"), loaded.IndexData)
}
