package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ledgerline/ledgerline/internal/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(e *env) error {
			if err := database.Migrate(cmd.Context(), e.sqlx); err != nil {
				return err
			}
			return printVersion(cmd, e)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(e *env) error {
			if err := database.MigrateDown(cmd.Context(), e.sqlx); err != nil {
				return err
			}
			return printVersion(cmd, e)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrations(cmd, func(e *env) error {
			return printVersion(cmd, e)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func withMigrations(cmd *cobra.Command, fn func(e *env) error) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	cmd.SetContext(ctx)

	e, err := loadEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	return fn(e)
}

func printVersion(cmd *cobra.Command, e *env) error {
	version, err := database.MigrationVersion(cmd.Context(), e.sqlx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}
