// Package store persists the retrieval engine's state in a single SQLite
// database: one latest-wins snapshot of the vector index plus chunk list,
// and a table of tracked source documents used for change detection.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/docdex/docdex/internal/errors"
)

const schemaVersion = 1

// Snapshot is one persisted engine state. Saving replaces the previous
// snapshot unconditionally; the store never holds more than one.
type Snapshot struct {
	// Backend names the index implementation that produced IndexData.
	Backend string

	// Dimensions is the vector dimension of the serialized index.
	Dimensions int

	// IndexData is the serialized vector index (backend-specific format).
	IndexData []byte

	// Chunks is the chunk list; position equals index row id.
	Chunks []string

	// SavedAt records when the snapshot was written.
	SavedAt time.Time
}

// Document is a tracked source file.
type Document struct {
	Filename     string
	Content      string
	LastModified time.Time
}

// Store wraps the SQLite database. Safe for concurrent use within a process;
// a file lock guards against concurrent writers from other processes.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	lock   *flock.Flock
	closed bool
}

// New opens (or creates) the store at path. An empty path opens an in-memory
// database for testing. On-disk stores take an exclusive advisory file lock
// so two processes cannot corrupt each other's snapshots.
func New(path string) (*Store, error) {
	var (
		dsn      string
		fileLock *flock.Flock
	)

	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.PersistenceError(fmt.Sprintf("create store directory %s", dir), err)
		}

		fileLock = flock.New(path + ".lock")
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, errors.PersistenceError("acquire store lock", err)
		}
		if !locked {
			return nil, errors.PersistenceError(
				fmt.Sprintf("store at %s is locked by another process", path), nil)
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		unlock(fileLock)
		return nil, errors.PersistenceError("open database", err)
	}

	// Single writer prevents SQLITE_BUSY under the pure Go driver
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite, DSN params are ignored
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			unlock(fileLock)
			return nil, errors.PersistenceError("set pragma", err)
		}
	}

	s := &Store{db: db, path: path, lock: fileLock}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		unlock(fileLock)
		return nil, errors.PersistenceError("initialize schema", err)
	}

	return s, nil
}

func unlock(l *flock.Flock) {
	if l != nil {
		if err := l.Unlock(); err != nil {
			slog.Warn("store_lock_release_failed", slog.String("error", err.Error()))
		}
	}
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- Single-row snapshot table. Saving deletes the old row first,
	-- so the latest snapshot is the only snapshot.
	CREATE TABLE IF NOT EXISTS snapshot (
		id          INTEGER PRIMARY KEY CHECK (id = 1),
		backend     TEXT NOT NULL,
		dimensions  INTEGER NOT NULL,
		index_blob  BLOB NOT NULL,
		chunks_blob BLOB NOT NULL,
		saved_at    INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		filename      TEXT PRIMARY KEY,
		content       TEXT NOT NULL,
		last_modified INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveSnapshot replaces the stored snapshot with snap.
func (s *Store) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.PersistenceError("store is closed", nil)
	}

	var chunksBuf bytes.Buffer
	if err := gob.NewEncoder(&chunksBuf).Encode(snap.Chunks); err != nil {
		return errors.PersistenceError("encode chunk list", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.PersistenceError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return errors.PersistenceError("clear previous snapshot", err)
	}

	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot (id, backend, dimensions, index_blob, chunks_blob, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?)`,
		snap.Backend, snap.Dimensions, snap.IndexData, chunksBuf.Bytes(), savedAt.UnixNano())
	if err != nil {
		return errors.PersistenceError("insert snapshot", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.PersistenceError("commit snapshot", err)
	}

	return nil
}

// LoadSnapshot returns the stored snapshot, or (nil, nil) when none exists.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.PersistenceError("store is closed", nil)
	}

	var (
		snap       Snapshot
		chunksBlob []byte
		savedAt    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT backend, dimensions, index_blob, chunks_blob, saved_at FROM snapshot WHERE id = 1`).
		Scan(&snap.Backend, &snap.Dimensions, &snap.IndexData, &chunksBlob, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.PersistenceError("read snapshot", err)
	}

	if err := gob.NewDecoder(bytes.NewReader(chunksBlob)).Decode(&snap.Chunks); err != nil {
		return nil, errors.New(errors.ErrCodeCorruptIndex, "decode chunk list", err)
	}

	snap.SavedAt = time.Unix(0, savedAt)
	return &snap, nil
}

// UpsertDocument records a source document, returning true when the row was
// inserted or updated. The update is skipped when the stored timestamp is not
// strictly older than lastModified, or when the content is unchanged.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, errors.PersistenceError("store is closed", nil)
	}

	var (
		existingContent  string
		existingModified int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT content, last_modified FROM documents WHERE filename = ?`, doc.Filename).
		Scan(&existingContent, &existingModified)

	switch {
	case err == sql.ErrNoRows:
		// New document, insert below
	case err != nil:
		return false, errors.PersistenceError("read document", err)
	default:
		if existingModified >= doc.LastModified.UnixNano() {
			return false, nil
		}
		if existingContent == doc.Content {
			return false, nil
		}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (filename, content, last_modified) VALUES (?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET content = excluded.content, last_modified = excluded.last_modified`,
		doc.Filename, doc.Content, doc.LastModified.UnixNano())
	if err != nil {
		return false, errors.PersistenceError("upsert document", err)
	}

	return true, nil
}

// TrackedDocuments returns all tracked documents keyed by filename.
func (s *Store) TrackedDocuments(ctx context.Context) (map[string]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errors.PersistenceError("store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, content, last_modified FROM documents`)
	if err != nil {
		return nil, errors.PersistenceError("list documents", err)
	}
	defer rows.Close()

	docs := make(map[string]Document)
	for rows.Next() {
		var (
			doc      Document
			modified int64
		)
		if err := rows.Scan(&doc.Filename, &doc.Content, &modified); err != nil {
			return nil, errors.PersistenceError("scan document", err)
		}
		doc.LastModified = time.Unix(0, modified)
		docs[doc.Filename] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, errors.PersistenceError("iterate documents", err)
	}

	return docs, nil
}

// DocumentCount returns the number of tracked documents.
func (s *Store) DocumentCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, errors.PersistenceError("store is closed", nil)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, errors.PersistenceError("count documents", err)
	}
	return n, nil
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database and the advisory lock. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.db.Close()
	unlock(s.lock)
	if err != nil {
		return errors.PersistenceError("close database", err)
	}
	return nil
}
