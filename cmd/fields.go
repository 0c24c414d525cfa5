package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/extractor"
)

var flagFieldsHTML string

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Work with field definition files",
}

func init() {
	checkCmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Parse a field definition file and optionally evaluate it against a saved HTML page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ds, err := extractor.ParseAll(string(raw))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if flagFieldsHTML == "" {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "FIELD\tTARGET\tCSS")
				for _, d := range ds {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Target, d.Selector.CSS())
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%d fields ok\n", len(ds))

				return nil
			}

			page, err := os.ReadFile(flagFieldsHTML)
			if err != nil {
				return err
			}
			values, err := extractor.ExtractHTML(string(page), ds)
			if err != nil {
				return err
			}

			if flagJSON {
				return writeJSON(out, values)
			}

			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				_, _ = fmt.Fprintf(out, "%s: %s\n", name, values[name])
			}

			return nil
		},
	}
	checkCmd.Flags().StringVar(&flagFieldsHTML, "html", "", "HTML file to evaluate the fields against")

	fieldsCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fieldsCmd)
}
