package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangameta/internal/config"

	"github.com/spf13/cobra"
)

var flagResetSites bool

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Reset the current or named config to default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := config.DefaultLabel
		if len(args) == 1 {
			label = args[0]
		} else if current, err := config.CurrentLabel(); err == nil {
			label = current
		}

		cfg, path, err := config.ResetConfig(label, !flagResetSites)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Reset config %q (%s):\n", label, path)
		cfg.Print(out)
		return nil
	},
}

func init() {
	configResetCmd.Flags().BoolVar(&flagResetSites, "reset-sites-dir", false, "also reset sites_dir to the default location")
	configCmd.AddCommand(configResetCmd)
}
