package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whogoverns/api/internal/api"
	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/observability"
	"github.com/whogoverns/api/internal/service"
	"github.com/whogoverns/api/internal/storage"
)

const tracerShutdownTimeout = 5 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := config.LoadOrDefault(c.configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracingOptions{
			Exporter:    cfg.Tracing.Exporter,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     c.version,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
			defer cancel()
			if err := shutdown(sctx); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	store, db, err := openStore(ctx, cfg, cfg.Database.AutoMigrate || c.Migrate)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.serve(ctx, cfg, store, logger)
}

// serve runs the API over store until ctx is done.
func (c *ServeCommand) serve(ctx context.Context, cfg *config.Config, store storage.Store, logger *slog.Logger) error {
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	svc := service.New(store, cfg.Dataset, metrics)
	srv := api.NewServer(cfg, svc, logger, metrics)

	logger.Info("starting api",
		"version", c.version,
		"driver", cfg.Database.Driver,
		"tracing", cfg.Tracing.Enabled,
		"metrics", cfg.Metrics.Enabled,
	)
	return srv.Run(ctx)
}

// applyOverrides folds command-line flags over the loaded configuration.
// --verbose lowers the log level to debug unless --log-level is given.
func (c *ServeCommand) applyOverrides(cfg *config.Config) {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	switch {
	case c.LogLevel != "":
		cfg.Logging.Level = c.LogLevel
	case c.globals != nil && c.globals.Verbose:
		cfg.Logging.Level = "debug"
	}
}

func (c *ServeCommand) configPath() string {
	if c.globals == nil {
		return ""
	}
	return c.globals.Config
}
