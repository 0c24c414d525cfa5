package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangameta/internal/config"
	"github.com/brogergvhs/mangameta/internal/reconcile"
)

func init() {
	pagesCmd := &cobra.Command{
		Use:   "pages <chapter-url>",
		Short: "List the page image URLs of one chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(config.Options{})
			if err != nil {
				return err
			}
			defer e.log.Sync()

			url := args[0]
			site, err := e.engine.Registry.Lookup(url)
			if err != nil {
				return err
			}

			var imgs []string
			if _, ok := e.catalog.Single[site]; ok {
				imgs, err = e.engine.Single.GetPages(cmd.Context(), url)
			} else {
				imgs, err = e.engine.Multi.GetPages(cmd.Context(), reconcile.Info{Site: site, URL: url})
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flagJSON {
				return writeJSON(out, imgs)
			}
			for _, img := range imgs {
				_, _ = fmt.Fprintln(out, img)
			}

			return nil
		},
	}

	rootCmd.AddCommand(pagesCmd)
}
