package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseURLEnv overrides database.url when set.
const DatabaseURLEnv = "DATABASE_URL"

// Config holds all whogoverns configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	APIPrefix          string        `yaml:"api_prefix"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	CacheMaxAgeSeconds int           `yaml:"cache_max_age_seconds"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"` // postgres or sqlite3
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

// DatasetConfig describes the window of years the power dataset covers and
// the country groups the map filter accepts.
type DatasetConfig struct {
	MinYear     int      `yaml:"min_year"`
	MaxYear     int      `yaml:"max_year"`
	DefaultYear int      `yaml:"default_year"`
	Groups      []string `yaml:"groups"`
}

// HasGroup reports whether code is a configured country group.
func (d DatasetConfig) HasGroup(code string) bool {
	for _, g := range d.Groups {
		if g == code {
			return true
		}
	}
	return false
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Exporter    string `yaml:"exporter"` // stdout or otlp
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadOrDefault loads the config at path, or returns the defaults when path
// is empty. DATABASE_URL is honoured either way.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		cfg := DefaultConfig()
		applyEnv(cfg)
		return cfg, nil
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	return Load(expanded)
}

func applyEnv(cfg *Config) {
	if url := os.Getenv(DatabaseURLEnv); url != "" {
		cfg.Database.URL = url
	}
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite3, got %q", c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url is empty (set it or %s)", DatabaseURLEnv))
	}

	if c.Dataset.MinYear > c.Dataset.MaxYear {
		errs = append(errs, fmt.Errorf("dataset.min_year %d is after dataset.max_year %d", c.Dataset.MinYear, c.Dataset.MaxYear))
	}
	if c.Dataset.DefaultYear < c.Dataset.MinYear || c.Dataset.DefaultYear > c.Dataset.MaxYear {
		errs = append(errs, fmt.Errorf("dataset.default_year %d is outside [%d, %d]", c.Dataset.DefaultYear, c.Dataset.MinYear, c.Dataset.MaxYear))
	}
	if len(c.Dataset.Groups) == 0 {
		errs = append(errs, errors.New("dataset.groups must name at least one group"))
	}

	if len(c.Server.CORSOrigins) == 0 {
		errs = append(errs, errors.New("server.cors_origins must name at least one origin (or \"*\")"))
	}
	for _, o := range c.Server.CORSOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Errorf("server.cors_origins entry %q must be \"*\" or start with http:// or https://", o))
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	if c.Tracing.Enabled {
		switch c.Tracing.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Errorf("tracing.exporter must be stdout or otlp, got %q", c.Tracing.Exporter))
		}
	}

	return errors.Join(errs...)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	path, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	return nil
}
