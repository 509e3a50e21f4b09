package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tripbudget/internal/app"
	"tripbudget/internal/config"
	"tripbudget/internal/database"
	"tripbudget/internal/logger"
)

var version = "1.0.0"

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Operate the trip budget ledger",
		Long: `ledgerctl runs maintenance tasks against the trip budget ledger:
schema migrations, consistency audits, budget summaries and Excel exports.

Storage is selected with the same environment variables as the API server
(STORAGE_DRIVER, SQLITE_PATH, DB_*).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return logger.SetLevel(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(newMigrateCmd(), newAuditCmd(), newSummaryCmd(), newExportCmd())
	return root
}

// openApp builds the ledger from the environment.
func openApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	dbCfg, err := database.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	return app.New(cfg, dbCfg)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
