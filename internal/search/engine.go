// Package search implements the retrieval engine: it composes the chunker,
// the embedding provider, the vector index and the persistence store into
// three operations. DiscoverUpdates finds new or modified documents in a
// folder, ApplyUpdates chunks and embeds them into the index, and Query
// returns the chunk texts most similar to a natural-language question.
package search

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/docdex/docdex/internal/chunk"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/errors"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/source"
	"github.com/docdex/docdex/internal/store"
)

// Search defaults. A score below DefaultMinSimilarity is treated as noise
// rather than a match.
const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.8
)

// QueryOptions tunes a single query. Zero values fall back to defaults.
type QueryOptions struct {
	// TopK is the number of nearest neighbors to retrieve before filtering.
	TopK int

	// MinSimilarity is the inclusive score threshold for returned chunks.
	MinSimilarity float64
}

// Stats describes the current engine state for status reporting.
type Stats struct {
	Chunks     int    `json:"chunks"`
	Vectors    int    `json:"vectors"`
	Dimensions int    `json:"dimensions"`
	Backend    string `json:"backend"`
	Documents  int    `json:"documents"`
	Model      string `json:"model"`
}

// Config wires an Engine's collaborators.
type Config struct {
	Store    *store.Store
	Embedder embed.Embedder
	Chunker  *chunk.SlidingWindow
	Scanner  *source.Scanner

	// Backend selects the index implementation for a cold start.
	// A restored snapshot keeps its own backend.
	Backend index.Backend

	Logger *slog.Logger
}

// Engine is the long-lived retrieval orchestrator.
//
// The chunk list and the vector index move in lockstep: a chunk's position in
// the list is its row id in the index, so both are append-only and persisted
// together as one snapshot. The mutex serializes the read-modify-persist
// sequence of ApplyUpdates against Query reads.
type Engine struct {
	mu sync.Mutex

	st       *store.Store
	embedder embed.Embedder
	chunker  *chunk.SlidingWindow
	scanner  *source.Scanner
	backend  index.Backend
	logger   *slog.Logger

	// idx is nil until the first snapshot load or ApplyUpdates call.
	idx    index.Index
	chunks []string
	// seen mirrors chunks for O(1) exact-text dedup membership checks.
	seen map[string]struct{}
}

// New constructs an engine and restores the persisted snapshot when one
// exists. A missing snapshot is a normal cold start, not an error.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, errors.ConfigError("engine requires a store", nil)
	}
	if cfg.Embedder == nil {
		return nil, errors.ConfigError("engine requires an embedder", nil)
	}
	if cfg.Chunker == nil {
		return nil, errors.ConfigError("engine requires a chunker", nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Scanner == nil {
		cfg.Scanner = source.NewScanner(nil, cfg.Logger)
	}

	e := &Engine{
		st:       cfg.Store,
		embedder: cfg.Embedder,
		chunker:  cfg.Chunker,
		scanner:  cfg.Scanner,
		backend:  cfg.Backend,
		logger:   cfg.Logger,
		seen:     make(map[string]struct{}),
	}

	if err := e.loadSnapshot(ctx); err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) loadSnapshot(ctx context.Context) error {
	snap, err := e.st.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		e.logger.Info("engine_cold_start")
		return nil
	}

	idx, err := index.New(index.ParseBackend(snap.Backend), snap.Dimensions)
	if err != nil {
		return errors.New(errors.ErrCodeCorruptIndex, "restore index", err)
	}
	if err := idx.Import(bytes.NewReader(snap.IndexData)); err != nil {
		return errors.New(errors.ErrCodeCorruptIndex, "restore index", err)
	}

	if idx.Count() != len(snap.Chunks) {
		return errors.New(errors.ErrCodeCorruptIndex,
			fmt.Sprintf("snapshot inconsistent: %d vectors, %d chunks", idx.Count(), len(snap.Chunks)), nil)
	}

	e.idx = idx
	e.chunks = snap.Chunks
	for _, c := range snap.Chunks {
		e.seen[c] = struct{}{}
	}

	e.logger.Info("engine_snapshot_restored",
		slog.Int("chunks", len(e.chunks)),
		slog.Int("dimensions", idx.Dimensions()),
		slog.String("backend", string(idx.Backend())))
	return nil
}

// DiscoverUpdates scans folder and returns the text of every document that is
// new or strictly newer than its tracking record, keyed by filename. Each
// qualifying document's tracking record is upserted as a side effect. A
// missing folder degrades to an empty mapping with a warning.
func (e *Engine) DiscoverUpdates(ctx context.Context, folder string) (map[string]string, error) {
	files, err := e.scanner.Scan(ctx, folder)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeFolderMissing {
			e.logger.Warn("discover_folder_missing",
				slog.String("folder", folder),
				slog.String("error", err.Error()))
			return map[string]string{}, nil
		}
		return nil, err
	}

	updates := make(map[string]string)
	for _, f := range files {
		changed, err := e.st.UpsertDocument(ctx, store.Document{
			Filename:     f.Name,
			Content:      f.Text,
			LastModified: f.ModTime,
		})
		if err != nil {
			return nil, err
		}
		if changed {
			updates[f.Name] = f.Text
		}
	}

	e.logger.Info("discover_updates",
		slog.String("folder", folder),
		slog.Int("scanned", len(files)),
		slog.Int("updated", len(updates)))
	return updates, nil
}

// ApplyUpdates chunks and embeds the given documents and inserts the vectors
// into the index. The first document on a cold start seeds the chunk list
// without deduplication; afterwards a chunk is added only when its exact text
// is not already present. The snapshot is persisted after every call that
// touched the index, even when nothing new was added.
func (e *Engine) ApplyUpdates(ctx context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Deterministic processing order
	names := make([]string, 0, len(updates))
	for name := range updates {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.applyDocument(ctx, name, updates[name]); err != nil {
			return err
		}
	}

	if e.idx == nil {
		// Every document chunked to nothing, there is no state to persist
		return nil
	}

	return e.persistLocked(ctx)
}

func (e *Engine) applyDocument(ctx context.Context, name, text string) error {
	chunks := e.chunker.ChunkLines(text)
	if len(chunks) == 0 {
		e.logger.Warn("apply_no_chunks", slog.String("document", name))
		return nil
	}

	vectors, err := e.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		e.logger.Error("apply_embedding_failed",
			slog.String("document", name),
			slog.String("error", err.Error()))
		return errors.EmbeddingError("embed document "+name, err)
	}
	vectors = embed.NormalizeAll(vectors)

	bootstrap := e.idx == nil
	if bootstrap {
		idx, err := index.New(e.backend, len(vectors[0]))
		if err != nil {
			return err
		}
		e.idx = idx
	}

	var (
		newChunks  []string
		newVectors [][]float32
	)
	for i, c := range chunks {
		if !bootstrap {
			if _, dup := e.seen[c]; dup {
				continue
			}
		}
		newChunks = append(newChunks, c)
		newVectors = append(newVectors, vectors[i])
		// Dedup within the batch too, except for the bootstrap document
		// which is seeded verbatim.
		if !bootstrap {
			e.seen[c] = struct{}{}
		}
	}

	if len(newChunks) == 0 {
		e.logger.Debug("apply_all_duplicates", slog.String("document", name))
		return nil
	}

	if err := e.idx.Insert(newVectors); err != nil {
		var dimErr index.ErrDimensionMismatch
		if stderrors.As(err, &dimErr) {
			return errors.DimensionError(dimErr.Error())
		}
		return err
	}

	e.chunks = append(e.chunks, newChunks...)
	for _, c := range newChunks {
		e.seen[c] = struct{}{}
	}

	e.logger.Info("apply_document",
		slog.String("document", name),
		slog.Int("chunks", len(chunks)),
		slog.Int("added", len(newChunks)))
	return nil
}

func (e *Engine) persistLocked(ctx context.Context) error {
	var buf bytes.Buffer
	if err := e.idx.Export(&buf); err != nil {
		return errors.PersistenceError("serialize index", err)
	}

	return e.st.SaveSnapshot(ctx, &store.Snapshot{
		Backend:    string(e.idx.Backend()),
		Dimensions: e.idx.Dimensions(),
		IndexData:  buf.Bytes(),
		Chunks:     e.chunks,
		SavedAt:    time.Now(),
	})
}

// Query embeds text and returns the chunk texts whose similarity meets the
// threshold, best first. An engine with no index or no chunks returns an
// empty result without error.
func (e *Engine) Query(ctx context.Context, text string, opts QueryOptions) ([]string, error) {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = DefaultMinSimilarity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.idx == nil || len(e.chunks) == 0 {
		e.logger.Warn("query_no_index", slog.String("query", text))
		return nil, nil
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Error("query_embedding_failed", slog.String("error", err.Error()))
		return nil, errors.EmbeddingError("embed query", err)
	}
	vector = embed.NormalizeVector(vector)

	scores, ids, err := e.idx.Search(vector, opts.TopK)
	if err != nil {
		return nil, errors.New(errors.ErrCodeSearchFailed, "index search", err)
	}

	var results []string
	for i, id := range ids {
		if id < 0 || id >= len(e.chunks) {
			continue
		}
		if float64(scores[i]) < opts.MinSimilarity {
			continue
		}
		results = append(results, e.chunks[id])
	}

	e.logger.Info("query",
		slog.Int("top_k", opts.TopK),
		slog.Int("returned", len(results)))
	return results, nil
}

// Stats reports the engine's current index and tracking state.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	docs, err := e.st.DocumentCount(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{
		Chunks:    len(e.chunks),
		Documents: docs,
		Model:     e.embedder.ModelName(),
	}
	if e.idx != nil {
		s.Vectors = e.idx.Count()
		s.Dimensions = e.idx.Dimensions()
		s.Backend = string(e.idx.Backend())
	}
	return s, nil
}
