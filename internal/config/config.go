package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ServiceName    = "warehouse-inventory"
	ServiceVersion = "0.1.0"
)

// Config holds environment-specific configuration. Callers load .env with
// godotenv before calling Load.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	AllowedOrigins string
	// MigrateOnStart applies pending migrations before the server listens.
	MigrateOnStart bool
	// TokenSecret enables HMAC bearer tokens for actor resolution. Empty
	// means actors come from trusted X-Actor-* headers.
	TokenSecret string

	LogLevel  string
	LogFormat string // "json" or "console"

	Environment  string
	SystemUserID int

	KafkaBrokers      []string
	KafkaTopic        string
	KafkaBatchTimeout time.Duration

	OtelEndpoint string
	OtelInsecure bool
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		AllowedOrigins:    os.Getenv("ALLOWED_ORIGINS"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getEnv("KAFKA_TOPIC", "inventory.events"),
		KafkaBatchTimeout: 10 * time.Millisecond,
		OtelEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	systemUser, err := strconv.Atoi(getEnv("SYSTEM_USER_ID", "1"))
	if err != nil || systemUser <= 0 {
		return nil, fmt.Errorf("SYSTEM_USER_ID must be a positive integer, got %q", os.Getenv("SYSTEM_USER_ID"))
	}
	cfg.SystemUserID = systemUser

	if v := os.Getenv("MIGRATE_ON_START"); v != "" {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MIGRATE_ON_START must be a boolean: %w", err)
		}
		cfg.MigrateOnStart = migrate
	}

	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("OTEL_EXPORTER_OTLP_INSECURE must be a boolean: %w", err)
		}
		cfg.OtelInsecure = insecure
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// EventsEnabled reports whether a Kafka broker list was configured.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// TracingEnabled reports whether an OTLP endpoint was configured.
func (c *Config) TracingEnabled() bool { return c.OtelEndpoint != "" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
