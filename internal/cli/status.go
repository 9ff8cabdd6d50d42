package cli

import (
	"context"
	"fmt"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/service"
	"github.com/whogoverns/api/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version   string                 `json:"version"`
	Driver    string                 `json:"driver"`
	Database  string                 `json:"database"`
	Error     string                 `json:"error,omitempty"`
	MinYear   int                    `json:"min_year"`
	MaxYear   int                    `json:"max_year"`
	Groups    []domain.Group         `json:"groups"`
	Coverage  *domain.CoverageCounts `json:"coverage"`
	Countries int                    `json:"countries"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, db, err := openStore(context.Background(), cfg, false)
	if err != nil {
		// Opening pings and prepares statements, so a down database fails here.
		return c.report(c.newStatus(cfg), unavailable(err))
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, cfg)
}

// executeWithStore runs status against a provided store (for testing). An
// unreachable store is reported, not returned as an error.
func (c *StatusCommand) executeWithStore(ctx context.Context, store storage.Store, cfg *config.Config) error {
	svc := service.New(store, cfg.Dataset, nil)
	out := c.newStatus(cfg)

	health := svc.DatabaseHealth(ctx)
	if health.DB != "ok" {
		return c.report(out, health)
	}

	meta, err := svc.Metadata(ctx, domain.LangEN)
	if err != nil {
		return fmt.Errorf("read metadata: %w", err)
	}
	out.Groups = meta.Groups
	out.Coverage = &meta.Coverage
	out.Countries = meta.Coverage.Available + meta.Coverage.InProgress + meta.Coverage.Planned

	return c.report(out, health)
}

func (c *StatusCommand) newStatus(cfg *config.Config) statusJSON {
	return statusJSON{
		Version: c.version,
		Driver:  cfg.Database.Driver,
		MinYear: cfg.Dataset.MinYear,
		MaxYear: cfg.Dataset.MaxYear,
		Groups:  []domain.Group{},
	}
}

func unavailable(err error) service.DBHealth {
	return service.DBHealth{Status: "degraded", DB: "unavailable", Error: err.Error()}
}

// report prints out with the database state taken from health.
func (c *StatusCommand) report(out statusJSON, health service.DBHealth) error {
	out.Database = health.DB
	out.Error = health.Error

	if isJSON(c.globals) {
		return printJSON(out)
	}
	return c.printStatusHuman(out)
}

func (c *StatusCommand) printStatusHuman(out statusJSON) error {
	fmt.Println("whogoverns Status")
	fmt.Println("=================")
	fmt.Printf("Version:       %s\n", out.Version)
	fmt.Printf("Driver:        %s\n", out.Driver)
	if out.Error != "" {
		fmt.Printf("Database:      %s (%s)\n", out.Database, out.Error)
	} else {
		fmt.Printf("Database:      %s\n", out.Database)
	}
	fmt.Printf("Years:         %d-%d\n", out.MinYear, out.MaxYear)

	if out.Coverage == nil {
		return nil
	}

	fmt.Printf("Countries:     %s\n", formatNumber(int64(out.Countries)))
	fmt.Println()
	fmt.Println("Coverage:")
	fmt.Printf("  %-14s %s\n", domain.CoverageAvailable, formatNumber(int64(out.Coverage.Available)))
	fmt.Printf("  %-14s %s\n", domain.CoverageInProgress, formatNumber(int64(out.Coverage.InProgress)))
	fmt.Printf("  %-14s %s\n", domain.CoveragePlanned, formatNumber(int64(out.Coverage.Planned)))

	if len(out.Groups) > 0 {
		fmt.Println()
		fmt.Println("Groups:")
		for _, g := range out.Groups {
			fmt.Printf("  %-8s %s\n", g.Code, g.Name)
		}
	}

	return nil
}
