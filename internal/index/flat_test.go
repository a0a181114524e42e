package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlat_InsertAndCount(t *testing.T) {
	idx := NewFlat(0)

	require.NoError(t, idx.Insert([][]float32{{1, 0, 0}, {0, 1, 0}}))
	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, 3, idx.Dimensions())

	require.NoError(t, idx.Insert([][]float32{{0, 0, 1}}))
	assert.Equal(t, 3, idx.Count())
}

func TestFlat_InsertDimensionMismatch(t *testing.T) {
	idx := NewFlat(3)

	err := idx.Insert([][]float32{{1, 0}})
	require.Error(t, err)

	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	// Failed insertion leaves the index unchanged
	assert.Equal(t, 0, idx.Count())
}

func TestFlat_SearchDescendingOrder(t *testing.T) {
	idx := NewFlat(0)
	require.NoError(t, idx.Insert([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
	}))

	scores, ids, err := idx.Search([]float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	require.Len(t, ids, 3)

	assert.Equal(t, []int{0, 2, 1}, ids)
	assert.InDelta(t, 1.0, float64(scores[0]), 1e-6)
	assert.InDelta(t, 0.6, float64(scores[1]), 1e-6)
	assert.InDelta(t, 0.0, float64(scores[2]), 1e-6)
}

func TestFlat_SearchPadsWithSentinel(t *testing.T) {
	idx := NewFlat(0)
	require.NoError(t, idx.Insert([][]float32{{1, 0}}))

	scores, ids, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, ids, 5)

	assert.Equal(t, 0, ids[0])
	for i := 1; i < 5; i++ {
		assert.Equal(t, SentinelID, ids[i])
		assert.Zero(t, scores[i])
	}
}

func TestFlat_SearchEmptyIndex(t *testing.T) {
	idx := NewFlat(0)

	scores, ids, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{SentinelID, SentinelID, SentinelID}, ids)
	assert.Equal(t, []float32{0, 0, 0}, scores)
}

func TestFlat_SearchQueryDimensionMismatch(t *testing.T) {
	idx := NewFlat(0)
	require.NoError(t, idx.Insert([][]float32{{1, 0, 0}}))

	_, _, err := idx.Search([]float32{1, 0}, 1)
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
}

func TestFlat_SearchInvalidK(t *testing.T) {
	idx := NewFlat(0)
	_, _, err := idx.Search([]float32{1}, 0)
	assert.Error(t, err)
}

func TestFlat_DuplicateVectorsStableOrder(t *testing.T) {
	idx := NewFlat(0)
	require.NoError(t, idx.Insert([][]float32{
		{0, 1},
		{1, 0},
		{1, 0},
	}))

	_, ids, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)

	// Equal scores keep insertion order
	assert.Equal(t, []int{1, 2, 0}, ids)
}

func TestFlat_ExportImportRoundTrip(t *testing.T) {
	idx := NewFlat(0)
	require.NoError(t, idx.Insert([][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}))

	var buf bytes.Buffer
	require.NoError(t, idx.Export(&buf))

	restored := NewFlat(0)
	require.NoError(t, restored.Import(&buf))

	assert.Equal(t, idx.Count(), restored.Count())
	assert.Equal(t, idx.Dimensions(), restored.Dimensions())

	origScores, origIDs, err := idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	restScores, restIDs, err := restored.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)

	assert.Equal(t, origIDs, restIDs)
	assert.Equal(t, origScores, restScores)
}

func TestNew_BackendSelection(t *testing.T) {
	flat, err := New(BackendFlat, 0)
	require.NoError(t, err)
	assert.Equal(t, BackendFlat, flat.Backend())

	approx, err := New(BackendHNSW, 0)
	require.NoError(t, err)
	assert.Equal(t, BackendHNSW, approx.Backend())

	_, err = New(Backend("bogus"), 0)
	assert.Error(t, err)
}

func TestParseBackend(t *testing.T) {
	assert.Equal(t, BackendHNSW, ParseBackend("hnsw"))
	assert.Equal(t, BackendFlat, ParseBackend("flat"))
	assert.Equal(t, BackendFlat, ParseBackend(""))
}
