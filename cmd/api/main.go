package main

import (
	"context"
	"log"

	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, flush, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer func() { _ = flush() }()

	app, err := NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("cannot start api", zap.Error(err))
	}

	if err := app.Run(); err != nil {
		logger.Error("api exited with error", zap.Error(err))
	}
}
