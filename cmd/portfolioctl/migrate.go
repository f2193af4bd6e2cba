package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfolio/portfolio-api/internal/config"
	"github.com/pfolio/portfolio-api/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB) error {
				if err := database.MigrateUp(db); err != nil {
					return fmt.Errorf("migrate up failed: %w", err)
				}
				return nil
			})
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB) error {
				if err := database.MigrateDown(db); err != nil {
					return fmt.Errorf("migrate down failed: %w", err)
				}
				return nil
			})
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *sql.DB) error {
				v, dirty, err := database.Version(db)
				if err != nil {
					return fmt.Errorf("read version failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatVersion(v, dirty))
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func formatVersion(v uint, dirty bool) string {
	if v == 0 && !dirty {
		return "no migrations applied"
	}
	if dirty {
		return fmt.Sprintf("version %d (dirty)", v)
	}
	return fmt.Sprintf("version %d", v)
}

// withDB opens the configured database for the duration of fn.
func withDB(fn func(db *sql.DB) error) error {
	cfg := config.Load()
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return fn(db)
}
