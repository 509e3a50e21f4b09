package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tripbudget/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(func(m *database.Manager) error {
					return m.Migrate()
				})
			},
		},
		&cobra.Command{
			Use:   "down [N]",
			Short: "Roll back N migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid step count: %w", err)
					}
					steps = n
				}
				return withManager(func(m *database.Manager) error {
					return m.MigrateDown(steps)
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(func(m *database.Manager) error {
					version, dirty, err := m.Version()
					if err != nil {
						return fmt.Errorf("failed to get version: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %v\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func withManager(fn func(m *database.Manager) error) error {
	cfg, err := database.NewConfig()
	if err != nil {
		return err
	}
	m, err := database.NewManager(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
