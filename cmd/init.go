package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesm/stack-digest/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create a default configuration file at the --config path. An existing file
is left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.CreateDefaultConfig(configPath); err != nil {
			return fmt.Errorf("failed to create default configuration: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Credentials can be provided via %s and %s\n", config.EnvAPIKey, config.EnvAccessToken)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
