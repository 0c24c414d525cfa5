package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/brogergvhs/mangameta/internal/config"

	"github.com/spf13/cobra"
)

var flagConfigFrom string

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config, empty or imported from a YAML file (--from)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			_, _ = fmt.Fprint(out, "Enter label for new config: ")
			reader := bufio.NewReader(cmd.InOrStdin())
			label, _ = reader.ReadString('\n')
		}
		label = strings.TrimSpace(label)

		if label == "" {
			return fmt.Errorf("label cannot be empty")
		}

		if flagConfigFrom != "" {
			if err := config.AddConfig(label, flagConfigFrom); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Imported %s as config %q\n", flagConfigFrom, label)
			return nil
		}

		path, err := config.CreateEmptyConfig(label)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagConfigFrom, "from", "", "YAML file to import")
	configCmd.AddCommand(configAddCmd)
}
