// Package watcher keeps the index in sync with a document folder. It watches
// the folder with fsnotify, debounces event bursts, and invokes a reindex
// callback once per quiet window. Watching is flat: documents live directly
// in the folder, matching how the scanner enumerates them.
package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReindexFunc is invoked after each debounced change burst.
// Errors are logged, not fatal; watching continues.
type ReindexFunc func(ctx context.Context) error

// FolderWatcher triggers reindexing when files in a folder change.
type FolderWatcher struct {
	window time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// New creates a folder watcher. A zero window uses DefaultDebounceWindow;
// a nil logger falls back to slog.Default.
func New(window time.Duration, logger *slog.Logger) *FolderWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &FolderWatcher{window: window, logger: logger}
}

// Run watches folder until ctx is cancelled, invoking reindex after each
// debounced change burst. An initial reindex runs before watching starts so
// changes made while the watcher was down are picked up.
func (w *FolderWatcher) Run(ctx context.Context, folder string, reindex ReindexFunc) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsWatcher.Close() }()

	if err := fsWatcher.Add(folder); err != nil {
		return err
	}

	runReindex := func() {
		if err := reindex(ctx); err != nil {
			w.logger.Error("watch_reindex_failed", slog.String("error", err.Error()))
		}
	}

	// Catch up on changes made while not watching
	runReindex()

	debouncer := NewDebouncer(w.window, runReindex)
	defer debouncer.Stop()

	w.logger.Info("watch_started", slog.String("folder", folder))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch_stopped", slog.String("folder", folder))
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				w.logger.Debug("watch_event",
					slog.String("path", event.Name),
					slog.String("op", event.Op.String()))
				debouncer.Trigger()
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}
