package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangameta/internal/config"

	"github.com/spf13/cobra"
)

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename a config profile; the Default profile cannot be renamed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to := args[0], args[1]
		active, _ := config.CurrentLabel()

		if err := config.RenameConfig(from, to); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed config %q to %q\n", from, to)
		if active == from {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Active profile is now %q\n", to)
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configRenameCmd)
}
