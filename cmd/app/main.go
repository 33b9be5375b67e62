// Command app runs one inventory command as the configured system user, e.g.
//
//	app reorder-evaluate 1
//	app expiring 1 14
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"warehouse-inventory/internal/adapters/cli"
	"warehouse-inventory/internal/app"
	"warehouse-inventory/internal/config"
	"warehouse-inventory/internal/db"
	"warehouse-inventory/internal/logging"
	"warehouse-inventory/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, "console", config.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	svc := app.NewAppService(app.NewServices(pool, cfg.SystemUserID), nil, metrics.New(), logger)

	actor, err := svc.ResolveActor(ctx, cfg.SystemUserID, "")
	if err != nil {
		log.Fatalf("Failed to load system user %d: %v", cfg.SystemUserID, err)
	}

	if err := cli.Run(ctx, svc, actor, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		pool.Close()
		os.Exit(1)
	}
}
