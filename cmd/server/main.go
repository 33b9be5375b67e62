package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	webAdapter "warehouse-inventory/internal/adapters/web"
	"warehouse-inventory/internal/app"
	"warehouse-inventory/internal/config"
	"warehouse-inventory/internal/db"
	"warehouse-inventory/internal/events"
	"warehouse-inventory/internal/logging"
	"warehouse-inventory/internal/metrics"
	"warehouse-inventory/internal/tracing"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:       cfg.OtelEndpoint,
		Insecure:       cfg.OtelInsecure,
		ServiceName:    config.ServiceName,
		ServiceVersion: config.ServiceVersion,
		Environment:    cfg.Environment,
	})
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", zap.Error(err))
		}
	}()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		if err := migrations.Apply(ctx, pool, logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	m := metrics.New()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.EventsEnabled() {
		publisher = events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			BatchTimeout: cfg.KafkaBatchTimeout,
		}, logger, func(name string, state gobreaker.State) {
			m.SetCircuitBreakerState(name, int(state))
		})
		logger.Info("kafka publisher enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("event publisher close failed", zap.Error(err))
		}
	}()

	svc := app.NewAppService(app.NewServices(pool, cfg.SystemUserID), publisher, m, logger)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		TokenSecret:    cfg.TokenSecret,
		Logger:         logger,
		Metrics:        m,
		Ping:           pool.Ping,
	})

	srv := newServer(cfg.ServerPort, handler)

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.Bool("token_auth", cfg.TokenSecret != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}
