// Command makersight ingests marketing exports into a local SQLite database
// and produces a metrics snapshot for the downstream report layers.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"makersight/internal/config"
	"makersight/internal/database"
	"makersight/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "makersight",
	Short: "Engagement analytics for small storefronts",
	Long:  "Ingest web-analytics, ads and search-console exports, classify session engagement, and emit a windowed metrics snapshot.",
}

// Execute is the main entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and opens the migrated
// database. Configuration problems have already killed the process inside
// GetConfig by the time this returns.
func setup() (*config.Config, *slog.Logger, *database.DBManager, error) {
	cfg := config.GetConfig()
	logger := logging.NewLogger(cfg)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, nil, nil, err
	}
	if err := dbManager.MigrateDatabase(); err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, dbManager, nil
}
