package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "parleyctl",
	Short: "Admin CLI for a running parley server",
	Long: `parleyctl talks to a running parley server over its HTTP API.

Available commands:
  users     List registered users
  health    Check server liveness

Use "parleyctl [command] --help" for more information about a specific command.`,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the parley server")
}
