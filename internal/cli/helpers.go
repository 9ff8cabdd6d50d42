package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/storage"
)

// loadConfig reads the file named by --config (or the defaults) and checks it.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var path string
	if globals != nil {
		path = globals.Config
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	return storage.Open(ctx, storage.Dialect(cfg.Database.Driver), cfg.Database.URL, storage.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
}

// openStore opens the configured database, optionally migrates it, and
// prepares the store.
func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*storage.SQLStore, *sql.DB, error) {
	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if migrate {
		if err := storage.NewMigrationRunner(db, storage.Dialect(cfg.Database.Driver)).Run(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	store, err := storage.NewSQLStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

var validate = validator.New()

// normalizeISO3 upper-cases code and requires exactly three letters.
func normalizeISO3(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validate.Var(code, "len=3,alpha"); err != nil {
		return "", fmt.Errorf("--iso3 must be exactly 3 letters, got %q", code)
	}
	return code, nil
}

func isJSON(globals *GlobalFlags) bool {
	return globals != nil && globals.JSON
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// partyLabel renders "Name (ABBR)", or "-" for a record without a party.
func partyLabel(p *domain.Party) string {
	if p == nil {
		return "-"
	}
	if p.Abbr == nil || *p.Abbr == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, *p.Abbr)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
