package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/config"
)

func init() {
	metadataCmd := &cobra.Command{
		Use:   "metadata <url>",
		Short: "Print the metadata of a series page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(config.Options{})
			if err != nil {
				return err
			}
			defer e.log.Sync()

			meta, err := e.engine.Metadata.GetMetadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, meta)
			}

			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				_, _ = fmt.Fprintf(out, "%s: %s\n", k, meta[k])
			}

			return nil
		},
	}

	rootCmd.AddCommand(metadataCmd)
}
