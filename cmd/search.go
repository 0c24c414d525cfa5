package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/config"
)

var (
	flagSearchSite string
	flagSearchPage int
)

func init() {
	searchCmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a site for series. An empty query lists the site's default page",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(config.Options{})
			if err != nil {
				return err
			}
			defer e.log.Sync()

			site := flagSearchSite
			if site == "" {
				names := e.engine.Search.Sites()
				if len(names) == 0 {
					return fmt.Errorf("no searchable sites in %s", e.cfg.SitesDir)
				}

				prompt := promptui.Select{Label: "Select site", Items: names}
				idx, _, err := prompt.Run()
				if err != nil {
					return fmt.Errorf("selection cancelled")
				}
				site = names[idx]
			}

			query := strings.Join(args, " ")
			results, err := e.engine.Search.Search(cmd.Context(), site, query, flagSearchPage)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, results)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TITLE\tTYPE\tSTATUS\tURL")
			for _, r := range results {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Title, deref(r.Type), deref(r.Status), r.URL)
			}

			return tw.Flush()
		},
	}

	searchCmd.Flags().StringVar(&flagSearchSite, "site", "", "site to search (prompted when omitted)")
	searchCmd.Flags().IntVar(&flagSearchPage, "page", 1, "result page, starting at 1")

	rootCmd.AddCommand(searchCmd)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}

	return *s
}
