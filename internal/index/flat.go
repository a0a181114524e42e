package index

import (
	"encoding/gob"
	"fmt"
	"io"
	"sort"
	"sync"
)

// Flat is an exact inner-product index backed by a dense row matrix.
// Insertion is amortized O(1) per vector; search is a full scan, which keeps
// scores exactly reproducible across runs. Suitable for corpora up to a few
// hundred thousand vectors.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

// flatSnapshot is the gob persistence form of a Flat index.
type flatSnapshot struct {
	Dim     int
	Vectors [][]float32
}

// Verify interface implementation at compile time
var _ Index = (*Flat)(nil)

// NewFlat creates an empty flat index.
// A dimension of 0 defers the dimension to the first insertion.
func NewFlat(dimensions int) *Flat {
	return &Flat{dim: dimensions}
}

// Insert appends vectors as new rows.
func (f *Flat) Insert(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.dim == 0 {
		f.dim = len(vectors[0])
	}

	for _, v := range vectors {
		if len(v) != f.dim {
			return ErrDimensionMismatch{Expected: f.dim, Got: len(v)}
		}
	}

	for _, v := range vectors {
		row := make([]float32, len(v))
		copy(row, v)
		f.vectors = append(f.vectors, row)
	}

	return nil
}

// Search returns the k highest inner-product matches in descending score order.
func (f *Flat) Search(query []float32, k int) ([]float32, []int, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("k must be positive, got %d", k)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.dim != 0 && len(query) != f.dim {
		return nil, nil, ErrDimensionMismatch{Expected: f.dim, Got: len(query)}
	}

	ids := make([]int, len(f.vectors))
	for i := range ids {
		ids[i] = i
	}

	dots := make([]float32, len(f.vectors))
	for i, row := range f.vectors {
		dots[i] = dotProduct(query, row)
	}

	// Stable sort keeps lower row ids first among equal scores,
	// making results reproducible for duplicate vectors.
	sort.SliceStable(ids, func(a, b int) bool {
		return dots[ids[a]] > dots[ids[b]]
	})

	scores := make([]float32, k)
	resultIDs := make([]int, k)
	for i := 0; i < k; i++ {
		if i < len(ids) {
			resultIDs[i] = ids[i]
			scores[i] = dots[ids[i]]
		} else {
			resultIDs[i] = SentinelID
		}
	}

	return scores, resultIDs, nil
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

// Dimensions returns the vector dimension, or 0 before first insertion.
func (f *Flat) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}

// Backend returns BackendFlat.
func (f *Flat) Backend() Backend {
	return BackendFlat
}

// Export writes the index to w as a gob stream.
func (f *Flat) Export(w io.Writer) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	enc := gob.NewEncoder(w)
	if err := enc.Encode(flatSnapshot{Dim: f.dim, Vectors: f.vectors}); err != nil {
		return fmt.Errorf("encode flat index: %w", err)
	}
	return nil
}

// Import replaces the index contents from a gob stream.
func (f *Flat) Import(r io.Reader) error {
	var snap flatSnapshot
	dec := gob.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return fmt.Errorf("decode flat index: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.dim = snap.Dim
	f.vectors = snap.Vectors
	return nil
}

// dotProduct computes the inner product of two vectors.
// Lengths are assumed equal; the caller validates dimensions.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
