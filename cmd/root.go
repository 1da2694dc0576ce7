package main

import (
	"github.com/spf13/cobra"
)

// configPath is the --config flag value
var configPath string

var rootCmd = &cobra.Command{
	Use:   "stack-digest",
	Short: "Stack Exchange question digest",
	Long: `stack-digest ingests questions and answers from the Stack Exchange API into
a local SQLite database and serves tag, exception and answer quality rankings
over HTTP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to configuration file")
}
