// Command migrate applies the embedded schema migrations to DATABASE_URL.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"warehouse-inventory/internal/config"
	"warehouse-inventory/internal/db"
	"warehouse-inventory/internal/logging"
	"warehouse-inventory/migrations"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, config.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	logger.Info("all migrations processed")
}
