package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/platform/postgres"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger, flush, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = flush() }()

	if err := run(context.Background(), cfg, *command, *name, logger); err != nil {
		logger.Fatal("migration failed", zap.String("command", *command), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, command, name string, logger *zap.Logger) error {
	// create writes a new file on disk and needs no database.
	if command == "create" {
		if name == "" {
			return errors.New("name is required for 'create' command")
		}
		goose.SetBaseFS(nil)
		if err := goose.Create(nil, cfg.MigrationsDir, name, "sql"); err != nil {
			return err
		}
		logger.Info("migration created", zap.String("name", name), zap.String("dir", cfg.MigrationsDir))
		return nil
	}

	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
	default:
		return fmt.Errorf("unknown command %q, use: up, down, status, create", command)
	}

	pool, err := postgres.Open(ctx, cfg.DB.DSN, cfg.DB.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, command); err != nil {
		return err
	}
	logger.Info("migration command finished", zap.String("command", command))
	return nil
}
