package index

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHNSW_InsertAndSearch(t *testing.T) {
	idx := NewHNSW(0)
	require.NoError(t, idx.Insert([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
	}))
	assert.Equal(t, 3, idx.Count())
	assert.Equal(t, 3, idx.Dimensions())

	scores, ids, err := idx.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, 0, ids[0])
	assert.InDelta(t, 1.0, float64(scores[0]), 1e-5)
}

func TestHNSW_DimensionMismatch(t *testing.T) {
	idx := NewHNSW(3)

	err := idx.Insert([][]float32{{1, 0}})
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)

	require.NoError(t, idx.Insert([][]float32{{1, 0, 0}}))
	_, _, err = idx.Search([]float32{1, 0}, 1)
	require.ErrorAs(t, err, &dimErr)
}

func TestHNSW_EmptyIndexPadsWithSentinel(t *testing.T) {
	idx := NewHNSW(0)

	scores, ids, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{SentinelID, SentinelID}, ids)
	assert.Equal(t, []float32{0, 0}, scores)
}

func TestHNSW_ExportImportRoundTrip(t *testing.T) {
	idx := NewHNSW(0)
	require.NoError(t, idx.Insert([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}))

	var buf bytes.Buffer
	require.NoError(t, idx.Export(&buf))

	restored := NewHNSW(0)
	require.NoError(t, restored.Import(&buf))

	assert.Equal(t, 3, restored.Count())
	assert.Equal(t, 3, restored.Dimensions())

	_, ids, err := restored.Search([]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ids[0])
}
