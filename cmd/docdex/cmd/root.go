// Package cmd provides the CLI commands for docdex.
package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/chunk"
	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/embed"
	"github.com/docdex/docdex/internal/index"
	"github.com/docdex/docdex/internal/logging"
	"github.com/docdex/docdex/internal/search"
	"github.com/docdex/docdex/internal/source"
	"github.com/docdex/docdex/internal/store"
	"github.com/docdex/docdex/internal/token"
	"github.com/docdex/docdex/pkg/version"
)

var debugMode bool

// NewRootCmd creates the root command for the docdex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docdex",
		Short: "Incremental document retrieval engine",
		Long: `docdex indexes text extracted from PDF and plain-text documents into
a vector index and answers natural-language queries with the most
semantically similar passages.

Indexing is incremental: only new or modified documents are processed,
and the index is persisted after every update.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("docdex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogging configures the structured logger for a command run.
// The returned cleanup must be deferred.
func setupLogging(cfg *config.Config) func() {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if debugMode {
		logCfg.Level = "debug"
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	logCfg.WriteToStderr = cfg.Logging.Stderr

	_, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Fall back to default slog, the command still runs
		slog.Warn("logging_setup_failed", slog.String("error", err.Error()))
		return func() {}
	}
	return cleanup
}

// loadConfig reads .docdex.yaml from the working directory.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// newEngine builds the full engine stack from configuration.
// Close the returned cleanup when done.
func newEngine(ctx context.Context, cfg *config.Config) (*search.Engine, func(), error) {
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}

	embedder, err := embed.NewEmbedder(ctx, embed.FactoryConfig{
		Provider:   embed.ParseProvider(cfg.Embeddings.Provider),
		Model:      cfg.Embeddings.Model,
		Host:       cfg.Embeddings.Host,
		Dimensions: cfg.Embeddings.Dimensions,
		BatchSize:  cfg.Embeddings.BatchSize,
		CacheSize:  cfg.Embeddings.CacheSize,
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}

	chunker, err := chunk.NewSlidingWindow(token.NewWordTokenizer(),
		cfg.Chunking.WindowSize, cfg.Chunking.Stride)
	if err != nil {
		_ = embedder.Close()
		_ = st.Close()
		return nil, nil, err
	}

	engine, err := search.New(ctx, search.Config{
		Store:    st,
		Embedder: embedder,
		Chunker:  chunker,
		Scanner:  source.NewScanner(nil, slog.Default()),
		Backend:  index.ParseBackend(cfg.Index.Backend),
		Logger:   slog.Default(),
	})
	if err != nil {
		_ = embedder.Close()
		_ = st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = embedder.Close()
		_ = st.Close()
	}
	return engine, cleanup, nil
}
