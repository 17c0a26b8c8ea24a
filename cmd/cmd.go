package cmd

import (
	"os"

	"github.com/ketohub/crawler/cmd/crawl"
	"github.com/ketohub/crawler/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version.",
	Long:  "print version.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version.Fprint(cmd.OutOrStdout())
	},
}

func Execute() {
	var rootCmd = &cobra.Command{Use: "crawler", SilenceUsage: true}
	rootCmd.AddCommand(crawl.CrawlCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
