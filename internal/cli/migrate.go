package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/whogoverns/api/internal/storage"
)

type migrateJSON struct {
	Driver  string `json:"driver"`
	DryRun  bool   `json:"dry_run"`
	Pending []int  `json:"pending"`
	Applied []int  `json:"applied"`
}

// Execute implements the go-flags Commander interface for MigrateCommand.
func (c *MigrateCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	db, err := openDB(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return c.executeWithDB(db, storage.Dialect(cfg.Database.Driver))
}

// executeWithDB runs migrations against a provided db (for testing).
func (c *MigrateCommand) executeWithDB(db *sql.DB, d storage.Dialect) error {
	runner := storage.NewMigrationRunner(db, d)

	pending, err := runner.Pending()
	if err != nil {
		return fmt.Errorf("list pending migrations: %w", err)
	}

	applied := []int{}
	if !c.DryRun && len(pending) > 0 {
		if err := runner.Run(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		applied = pending
	}

	if isJSON(c.globals) {
		if pending == nil {
			pending = []int{}
		}
		return printJSON(migrateJSON{
			Driver:  string(d),
			DryRun:  c.DryRun,
			Pending: pending,
			Applied: applied,
		})
	}

	switch {
	case len(pending) == 0:
		fmt.Println("Schema is up to date.")
	case c.DryRun:
		fmt.Printf("Pending migrations: %v\n", pending)
	default:
		for _, v := range applied {
			fmt.Printf("Applied migration %d\n", v)
		}
	}
	return nil
}
