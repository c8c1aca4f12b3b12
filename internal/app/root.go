// Package app holds the housecheck command-line interface.
package app

import (
	"github.com/spf13/cobra"

	"github.com/vbonduro/housecheck/internal/config"
)

var (
	dbPath string

	// RootCmd is the root command for housecheck
	RootCmd = &cobra.Command{
		Use:   "housecheck",
		Short: "Inspection session service for property and home checks",
		Long: `housecheck runs checklist-driven property and home inspections.

An inspector starts a session from the active template for a check type,
ticks items, adds notes and photos, and completes the session once every
required item is done. Edits are saved periodically and mirrored to a
backup store so an interrupted session can be recovered.

Examples:
  # Apply database migrations
  housecheck migrate

  # Publish the built-in templates
  housecheck templates seed

  # Run the HTTP API
  housecheck serve`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: $DB_PATH)")
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}
