package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/medstore/app/repositories"
	"github.com/shashiranjanraj/medstore/config"
	"github.com/shashiranjanraj/medstore/database/seeders"
	"github.com/shashiranjanraj/medstore/internal/server"
	"github.com/shashiranjanraj/medstore/pkg/database"
	"github.com/shashiranjanraj/medstore/pkg/migration"
)

// bootSQL loads config and opens the SQL connection. Migrations only exist
// for the SQL drivers.
func bootSQL() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	driver := config.DatabaseDriver()
	if driver == "mongo" || driver == "memory" {
		return nil, fmt.Errorf("DB_DRIVER=%s has no SQL migrations", driver)
	}
	return database.OpenSQL(driver, config.DatabaseDSN())
}

// bootStore opens the configured store the same way serve does.
func bootStore(ctx context.Context) (repositories.Store, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	return server.OpenStore(ctx)
}

func closeSQL(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// medstore migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending SQL migrations (mongo: ensure indexes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if config.DatabaseDriver() == "mongo" {
			store, err := bootStore(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Mongo indexes ensured.")
			return store.Close(ctx)
		}

		db, err := bootSQL()
		if err != nil {
			return err
		}
		defer closeSQL(db)

		fmt.Println("Running migrations…")
		ran, err := migration.New(db).Run()
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
		}
		for _, name := range ran {
			fmt.Println("  ✓", name)
		}
		return nil
	},
}

// medstore migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootSQL()
		if err != nil {
			return err
		}
		defer closeSQL(db)

		fmt.Println("Rolling back last batch…")
		undone, err := migration.New(db).Rollback()
		if err != nil {
			return err
		}
		if len(undone) == 0 {
			fmt.Println("Nothing to rollback.")
		}
		for _, name := range undone {
			fmt.Println("  ↩", name)
		}
		return nil
	},
}

// medstore migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootSQL()
		if err != nil {
			return err
		}
		defer closeSQL(db)

		statuses, err := migration.New(db).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range statuses {
			ran, batch := "no", "-"
			if s.Ran {
				ran, batch = "yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
		}
		return w.Flush()
	},
}

// medstore seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := bootStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, store, os.Stdout)
	},
}
