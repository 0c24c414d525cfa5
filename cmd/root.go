package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
	flagSitesDir     string
	flagPermissive   bool
	flagJSON         bool
)

var rootCmd = &cobra.Command{
	Use:           "mangameta",
	Short:         "Scrape manga chapters, pages, metadata and search results from configurable sites",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	rootCmd.PersistentFlags().StringVar(&flagSitesDir, "sites-dir", "", "directory with site definitions (overrides sites_dir)")
	rootCmd.PersistentFlags().BoolVar(&flagPermissive, "permissive", false, "fill in missing chapter numbers instead of failing")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "print results as JSON")
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
