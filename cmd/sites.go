package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/config"
)

type siteRow struct {
	Name     string   `json:"name"`
	Services []string `json:"services"`
	Icon     string   `json:"icon,omitempty"`
}

func init() {
	sitesCmd := &cobra.Command{
		Use:   "sites",
		Short: "List the sites loaded from the sites directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(config.Options{})
			if err != nil {
				return err
			}
			defer e.log.Sync()

			var rows []siteRow
			for _, s := range e.engine.Registry.Sites() {
				row := siteRow{Name: s.Name, Icon: s.Icon}
				if _, ok := e.catalog.Multi[s.Name]; ok {
					row.Services = append(row.Services, "chapters")
				}
				if _, ok := e.catalog.Single[s.Name]; ok {
					row.Services = append(row.Services, "pages")
				}
				if _, ok := e.catalog.Metadata[s.Name]; ok {
					row.Services = append(row.Services, "metadata")
				}
				if _, ok := e.catalog.Search[s.Name]; ok {
					row.Services = append(row.Services, "search")
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, map[string]any{
					"sites":      rows,
					"searchable": e.engine.Search.Sites(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "SITE\tSERVICES\tICON")
			for _, r := range rows {
				icon := r.Icon
				if icon == "" {
					icon = "-"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, strings.Join(r.Services, ","), icon)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "\nSearchable: %s\n", strings.Join(e.engine.Search.Sites(), ", "))

			return nil
		},
	}

	rootCmd.AddCommand(sitesCmd)
}
