package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, database.MigrateUp)
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, database.MigrateDown)
		},
	})

	return cmd
}

func runMigration(cmd *cobra.Command, step func(*sqlx.DB) error) error {
	cfg := config.LoadConfig()

	db, err := database.Connect(cmd.Context(), cfg.PostgresURI)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := step(db); err != nil {
		return err
	}

	log.Printf("Migration %s complete", cmd.Name())
	return nil
}
