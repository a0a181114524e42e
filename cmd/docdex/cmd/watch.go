package cmd

import (
	"context"
	stderrors "errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Watch a folder and reindex on changes",
		Long: `Watch a folder for document changes and reindex incrementally after
each change burst. Runs until interrupted.

The folder defaults to paths.docs_folder from .docdex.yaml.`,
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

			out := output.New(cmd.OutOrStdout())

			engine, cleanup, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			reindex := func(ctx context.Context) error {
				updates, err := engine.DiscoverUpdates(ctx, folder)
				if err != nil {
					return err
				}
				if len(updates) == 0 {
					return nil
				}
				if err := engine.ApplyUpdates(ctx, updates); err != nil {
					return err
				}
				out.Statusf("📄", "Reindexed %d document(s)", len(updates))
				return nil
			}

			out.Statusf("👀", "Watching %s (Ctrl-C to stop)", folder)
			err = watcher.New(debounce, nil).Run(ctx, folder, reindex)
			if stderrors.Is(err, context.Canceled) {
				out.Success("Stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounceWindow,
		"Quiet window before reindexing after a change burst")

	return cmd
}
