package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long:  `Show the number of indexed documents and chunks, the vector dimension, the index backend and the embedding model.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer setupLogging(cfg)()

			engine, cleanup, err := newEngine(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := engine.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Documents:  %d\n", stats.Documents)
			fmt.Fprintf(w, "Chunks:     %d\n", stats.Chunks)
			fmt.Fprintf(w, "Vectors:    %d\n", stats.Vectors)
			fmt.Fprintf(w, "Dimensions: %d\n", stats.Dimensions)
			if stats.Backend != "" {
				fmt.Fprintf(w, "Backend:    %s\n", stats.Backend)
			}
			fmt.Fprintf(w, "Model:      %s\n", stats.Model)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}
