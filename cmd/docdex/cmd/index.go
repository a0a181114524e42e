package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/output"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [folder]",
		Short: "Index new or modified documents from a folder",
		Long: `Scan a folder for PDF, text and markdown documents, then chunk, embed
and index every document that is new or modified since the last run.

The folder defaults to paths.docs_folder from .docdex.yaml.

Examples:
  docdex index
  docdex index ./reports`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			folder := cfg.Paths.DocsFolder
			if len(args) > 0 {
				folder = args[0]
			}
			return runIndex(cmd.Context(), cmd, cfg, folder)
		},
	}
}

func runIndex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, folder string) error {
	out := output.New(cmd.OutOrStdout())

	engine, cleanup, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	out.Statusf("🔍", "Scanning %s", folder)
	updates, err := engine.DiscoverUpdates(ctx, folder)
	if err != nil {
		return err
	}

	if len(updates) == 0 {
		out.Success("Index is up to date")
		return nil
	}

	out.Statusf("📄", "Indexing %d document(s)", len(updates))
	if err := engine.ApplyUpdates(ctx, updates); err != nil {
		out.Errorf("Indexing failed: %v", err)
		return err
	}

	stats, err := engine.Stats(ctx)
	if err != nil {
		return err
	}
	out.Successf("Indexed %d document(s), %d chunk(s) total", len(updates), stats.Chunks)
	return nil
}
