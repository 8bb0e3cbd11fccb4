// Package main provides the match_agent CLI: the HTTP API server plus
// maintenance commands for the assessment store.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "match_agent",
	Short: "Interview assessment and matching engine",
	Long: "match_agent runs interview sessions, scores them with a reasoning service, " +
		"matches candidates to open positions and tracks how well AI scores agree with human reviewers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (optional)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
