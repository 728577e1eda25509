package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sera",
	Short: "SERA - personal health tracking backend",
	Long: `SERA Unified CLI

Personal health tracking backend: wearable and body-composition
ingestion, canonical daily snapshots, and readiness scoring.

Usage:
  go run ./cmd/sera [command]

Examples:
  go run ./cmd/sera api
  go run ./cmd/sera import --date 2026-08-29
  go run ./cmd/sera readiness --date 2026-08-29
  go run ./cmd/sera test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
