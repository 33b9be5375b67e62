// Package testutil provides the Postgres used by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/joho/godotenv"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance.
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	URL       string
}

// NewPostgresContainer starts a throwaway Postgres 16.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	c, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("inventory_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	url, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(c)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	return &PostgresContainer{Container: c, URL: url}, nil
}

// Close terminates the container.
func (p *PostgresContainer) Close(ctx context.Context) error {
	if p.Container == nil {
		return nil
	}
	return testcontainers.TerminateContainer(p.Container, testcontainers.StopContext(ctx))
}

var (
	sharedOnce sync.Once
	sharedURL  string
	sharedErr  error
)

// DatabaseURL returns the database integration tests run against.
// TEST_DATABASE_URL wins; otherwise TESTCONTAINERS=1 starts one container
// shared by the whole test binary. With neither set the test is skipped so
// a live database is never touched.
func DatabaseURL(t testing.TB, envFile string) string {
	t.Helper()
	_ = godotenv.Load(envFile)

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("TESTCONTAINERS") != "1" {
		t.Skip("TEST_DATABASE_URL not set and TESTCONTAINERS!=1, skipping integration test")
	}

	sharedOnce.Do(func() {
		var c *PostgresContainer
		c, sharedErr = NewPostgresContainer(context.Background())
		if sharedErr == nil {
			sharedURL = c.URL
		}
	})
	if sharedErr != nil {
		t.Fatalf("postgres container: %v", sharedErr)
	}
	return sharedURL
}
