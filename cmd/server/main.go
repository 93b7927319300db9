// Package main implements the entry point for the classplan API server,
// which manages classroom seating plans, student groups and annotations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/classplan/internal/config"
	"github.com/phrazzld/classplan/internal/platform/logger"
	"github.com/phrazzld/classplan/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("classplan: %v", err)
	}
}

// run parses flags, loads configuration and either applies a migration
// command or serves the API until ctx is canceled.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	migrateCmd := fs.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	configDir := fs.String("config-dir", ".", "directory holding an optional config.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadFrom(*configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(logger.LoggerConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Bool("in_memory", cfg.Database.InMemory()))

	if *migrateCmd != "" {
		return handleMigrations(ctx, cfg, *migrateCmd, l)
	}

	db, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, l, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// handleMigrations applies a goose command to the configured database.
func handleMigrations(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	if cfg.Database.InMemory() {
		return fmt.Errorf("migrations need database.url to be set")
	}

	db, err := setupAppDatabase(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}()

	return postgres.Migrate(ctx, db, command, l)
}
