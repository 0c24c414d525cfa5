package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/chapters"
	"github.com/brogergvhs/mangameta/internal/config"
	"github.com/brogergvhs/mangameta/internal/reconcile"
)

func init() {
	chaptersCmd := &cobra.Command{
		Use:   "chapters <url>",
		Short: "List the chapters of a series, readable now and scheduled for later",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(config.Options{})
			if err != nil {
				return err
			}
			defer e.log.Sync()

			res, err := e.engine.Multi.GetChapters(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, res)
			}

			return printChapters(out, res)
		},
	}

	rootCmd.AddCommand(chaptersCmd)
}

func printChapters(w io.Writer, res reconcile.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EPISODE\tTITLE\tURL")
	for _, ch := range chapters.Wrap("", res.Now) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.Number(), ch.Title(), ch.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(res.Later) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "\nScheduled (%d):\n", len(res.Later))
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, ch := range chapters.Wrap("", res.Later) {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", ch.Number(), ch.Title(), ch.URL)
	}

	return tw.Flush()
}
