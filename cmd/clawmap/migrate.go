package main

import (
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clawmap/internal/db"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the local SQLite schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Connect(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			return err
		}
		return printVersion(cmd, database)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		database, err := db.Connect(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.Rollback(database, migrateSteps); err != nil {
			return err
		}
		logger.Info("rolled back migrations", "steps", migrateSteps)
		return printVersion(cmd, database)
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Connect(cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close()
		return printVersion(cmd, database)
	},
}

func printVersion(cmd *cobra.Command, database *sql.DB) error {
	v, dirty, err := db.Version(database)
	if err != nil {
		return err
	}
	if dirty {
		cmd.Printf("schema version %d (dirty)\n", v)
		return nil
	}
	cmd.Printf("schema version %d\n", v)
	return nil
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}
