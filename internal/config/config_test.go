package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SYSTEM_USER_ID", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")
	t.Setenv("MIGRATE_ON_START", "")
	t.Setenv("TOKEN_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.MigrateOnStart)
	assert.Empty(t, cfg.TokenSecret)
	assert.Equal(t, 1, cfg.SystemUserID)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.EventsEnabled())
	assert.False(t, cfg.TracingEnabled())
}

func TestLoad_KafkaBrokerList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"bad system user", map[string]string{"DATABASE_URL": "postgres://x", "SYSTEM_USER_ID": "abc"}},
		{"zero system user", map[string]string{"DATABASE_URL": "postgres://x", "SYSTEM_USER_ID": "0"}},
		{"bad log format", map[string]string{"DATABASE_URL": "postgres://x", "LOG_FORMAT": "xml"}},
		{"bad insecure flag", map[string]string{"DATABASE_URL": "postgres://x", "OTEL_EXPORTER_OTLP_INSECURE": "maybe"}},
		{"bad migrate flag", map[string]string{"DATABASE_URL": "postgres://x", "MIGRATE_ON_START": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SYSTEM_USER_ID", "")
			t.Setenv("LOG_FORMAT", "")
			t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "")
			t.Setenv("MIGRATE_ON_START", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MigrateAndToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
}
