package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangameta/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config profiles of mangameta",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
			SitesDir:     flagSitesDir,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Loaded config from:\n  %s\n\n", used)
		cfg.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
