// Package index provides in-memory vector indexes with incremental insertion
// and top-k inner-product search.
//
// The flat index is exact: identical corpora always produce identical
// similarity scores. The HNSW backend trades exactness for sublinear search
// on large corpora. Vectors must be unit-normalized by the caller before
// insertion and search; the index itself never normalizes, so inner product
// equals cosine similarity by construction.
package index

import (
	"fmt"
	"io"
)

// SentinelID pads search results when the index holds fewer than k vectors.
const SentinelID = -1

// Backend identifies a vector index implementation.
type Backend string

const (
	// BackendFlat is the exact inner-product index (default).
	BackendFlat Backend = "flat"
	// BackendHNSW is the approximate graph index for large corpora.
	BackendHNSW Backend = "hnsw"
)

// ParseBackend converts a string to a Backend, defaulting to flat.
func ParseBackend(s string) Backend {
	if s == string(BackendHNSW) {
		return BackendHNSW
	}
	return BackendFlat
}

// Index holds fixed-dimension vectors and answers top-k inner-product queries.
//
// The dimension is fixed by the first insertion; all later vectors must share
// it. Row ids are assigned by insertion order starting at zero and are never
// reused: the index is append-only.
type Index interface {
	// Insert appends vectors as new rows. Returns ErrDimensionMismatch if a
	// vector's dimension differs from the index dimension.
	Insert(vectors [][]float32) error

	// Search returns the k highest inner-product matches in descending score
	// order. When fewer than k vectors exist, the tail is padded with
	// SentinelID ids and zero scores so both slices always have length k.
	Search(query []float32, k int) (scores []float32, ids []int, err error)

	// Count returns the number of stored vectors.
	Count() int

	// Dimensions returns the vector dimension, or 0 before first insertion.
	Dimensions() int

	// Backend returns the implementation identifier.
	Backend() Backend

	// Export writes the index to w for persistence.
	Export(w io.Writer) error

	// Import replaces the index contents from r.
	Import(r io.Reader) error
}

// New creates an empty index for the given backend.
// A dimension of 0 defers the dimension to the first insertion.
func New(backend Backend, dimensions int) (Index, error) {
	switch backend {
	case BackendFlat, "":
		return NewFlat(dimensions), nil
	case BackendHNSW:
		return NewHNSW(dimensions), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %s", backend)
	}
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: index holds %d-dimensional vectors, got %d", e.Expected, e.Got)
}
