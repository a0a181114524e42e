package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docdex/docdex/internal/config"
	"github.com/docdex/docdex/internal/output"
	"github.com/docdex/docdex/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK     int
	minScore float64
	format   string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Long: `Search the indexed documents for passages semantically similar to the
query. Only passages scoring at or above the similarity threshold are
returned, best match first.

Examples:
  docdex search "refund policy for cancelled orders"
  docdex search "maintenance schedule" --top-k 3
  docdex search "safety procedures" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			if opts.topK == 0 {
				opts.topK = cfg.Search.TopK
			}
			if opts.minScore == 0 {
				opts.minScore = cfg.Search.MinSimilarity
			}

			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, cfg, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0, "Minimum similarity score (0-1)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, query string, opts searchOptions) error {
	out := output.New(cmd.OutOrStdout())

	engine, cleanup, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := engine.Query(ctx, query, search.QueryOptions{
		TopK:          opts.topK,
		MinSimilarity: opts.minScore,
	})
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":   query,
			"results": results,
		})
	}

	if len(results) == 0 {
		out.Warning("No matching passages found")
		return nil
	}

	for i, text := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, text)
	}
	return nil
}
