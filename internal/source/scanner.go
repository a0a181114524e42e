package source

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docdex/docdex/internal/errors"
)

// File is one extracted document.
type File struct {
	// Name is the filename relative to the scanned folder.
	Name string

	// Text is the extracted plain text.
	Text string

	// ModTime is the file's modification time.
	ModTime time.Time
}

// Scanner enumerates a folder and extracts supported files in parallel.
type Scanner struct {
	byExt   map[string]Extractor
	workers int
	logger  *slog.Logger
}

// NewScanner creates a scanner over the given extractors.
// A nil logger falls back to slog.Default.
func NewScanner(extractors []Extractor, logger *slog.Logger) *Scanner {
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		byExt:   extractorMap(extractors),
		workers: runtime.NumCPU(),
		logger:  logger,
	}
}

// Scan extracts every supported file directly under folder, sorted by name.
// A missing or unreadable folder returns ErrCodeFolderMissing; the caller
// decides whether that is fatal. Files whose extraction fails or whose text
// is empty are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, folder string) ([]File, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, errors.New(errors.ErrCodeFolderMissing,
			"cannot read document folder "+folder, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if supportedFile(entry.Name(), s.byExt) {
			paths = append(paths, entry.Name())
		}
	}
	sort.Strings(paths)

	var (
		mu    sync.Mutex
		files []File
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, name := range paths {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			full := filepath.Join(folder, name)
			info, err := os.Stat(full)
			if err != nil {
				s.logger.Warn("source_stat_failed",
					slog.String("file", name),
					slog.String("error", err.Error()))
				return nil
			}

			extractor := s.byExt[strings.ToLower(filepath.Ext(name))]
			text, err := extractor.Extract(full)
			if err != nil {
				s.logger.Warn("source_extract_failed",
					slog.String("file", name),
					slog.String("error", err.Error()))
				return nil
			}
			if strings.TrimSpace(text) == "" {
				s.logger.Warn("source_empty_text", slog.String("file", name))
				return nil
			}

			mu.Lock()
			files = append(files, File{Name: name, Text: text, ModTime: info.ModTime()})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
