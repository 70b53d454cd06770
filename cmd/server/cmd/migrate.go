package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var migrateDownSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Postgres schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		connString, err := migrationTarget()
		if err != nil {
			return err
		}
		if err := postgres.MigrateUp(connString); err != nil {
			return err
		}
		return reportVersion(cmd, connString)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back applied migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		connString, err := migrationTarget()
		if err != nil {
			return err
		}
		if err := postgres.MigrateDown(connString, migrateDownSteps); err != nil {
			return err
		}
		return reportVersion(cmd, connString)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		connString, err := migrationTarget()
		if err != nil {
			return err
		}
		return reportVersion(cmd, connString)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

func migrationTarget() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	if cfg.Database.UsesMemoryStore() {
		return "", fmt.Errorf("DATABASE_URL %s has no schema to migrate", config.MemoryDatabaseURL)
	}
	return cfg.Database.ConnString()
}

func reportVersion(cmd *cobra.Command, connString string) error {
	version, dirty, err := postgres.MigrationVersion(connString)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
