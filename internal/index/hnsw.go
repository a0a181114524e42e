package index

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/coder/hnsw"
)

// Default HNSW graph parameters. M follows the coder/hnsw recommendation;
// EfSearch trades recall for latency at query time.
const (
	defaultHNSWM        = 16
	defaultHNSWEfSearch = 20
	defaultHNSWMl       = 0.25
)

// HNSW is an approximate inner-product index built on a coder/hnsw graph.
// Row ids double as graph keys, which works because the index is append-only
// and rows are never deleted. Scores are computed as 1 minus cosine distance,
// which equals the inner product for unit-normalized vectors.
type HNSW struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	dim   int
	count int
}

// hnswHeader precedes the exported graph bytes in the persistence stream.
type hnswHeader struct {
	Dim   int
	Count int
}

// Verify interface implementation at compile time
var _ Index = (*HNSW)(nil)

// NewHNSW creates an empty HNSW index.
// A dimension of 0 defers the dimension to the first insertion.
func NewHNSW(dimensions int) *HNSW {
	return &HNSW{
		graph: newGraph(),
		dim:   dimensions,
	}
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = defaultHNSWM
	g.EfSearch = defaultHNSWEfSearch
	g.Ml = defaultHNSWMl
	return g
}

// Insert appends vectors as new rows.
func (h *HNSW) Insert(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dim == 0 {
		h.dim = len(vectors[0])
	}

	for _, v := range vectors {
		if len(v) != h.dim {
			return ErrDimensionMismatch{Expected: h.dim, Got: len(v)}
		}
	}

	for _, v := range vectors {
		vec := make([]float32, len(v))
		copy(vec, v)
		h.graph.Add(hnsw.MakeNode(uint64(h.count), vec))
		h.count++
	}

	return nil
}

// Search returns the k best approximate matches in descending score order.
func (h *HNSW) Search(query []float32, k int) ([]float32, []int, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("k must be positive, got %d", k)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.dim != 0 && len(query) != h.dim {
		return nil, nil, ErrDimensionMismatch{Expected: h.dim, Got: len(query)}
	}

	scores := make([]float32, k)
	ids := make([]int, k)
	for i := range ids {
		ids[i] = SentinelID
	}

	if h.count == 0 {
		return scores, ids, nil
	}

	nodes := h.graph.Search(query, k)
	for i, node := range nodes {
		if i >= k {
			break
		}
		ids[i] = int(node.Key)
		scores[i] = 1 - h.graph.Distance(query, node.Value)
	}

	return scores, ids, nil
}

// Count returns the number of stored vectors.
func (h *HNSW) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Dimensions returns the vector dimension, or 0 before first insertion.
func (h *HNSW) Dimensions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dim
}

// Backend returns BackendHNSW.
func (h *HNSW) Backend() Backend {
	return BackendHNSW
}

// Export writes a gob header followed by the serialized graph.
func (h *HNSW) Export(w io.Writer) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	enc := gob.NewEncoder(w)
	if err := enc.Encode(hnswHeader{Dim: h.dim, Count: h.count}); err != nil {
		return fmt.Errorf("encode hnsw header: %w", err)
	}
	if err := h.graph.Export(w); err != nil {
		return fmt.Errorf("export hnsw graph: %w", err)
	}
	return nil
}

// Import replaces the index contents from an Export stream.
func (h *HNSW) Import(r io.Reader) error {
	// coder/hnsw Import requires an io.ByteReader
	br := bufio.NewReader(r)

	var header hnswHeader
	dec := gob.NewDecoder(br)
	if err := dec.Decode(&header); err != nil {
		return fmt.Errorf("decode hnsw header: %w", err)
	}

	graph := newGraph()
	if header.Count > 0 {
		if err := graph.Import(br); err != nil {
			return fmt.Errorf("import hnsw graph: %w", err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.dim = header.Dim
	h.count = header.Count
	h.graph = graph
	return nil
}
