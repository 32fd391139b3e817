// Package testutil opens a Postgres pool for tests that opt in through
// TEST_DATABASE_URL. Tests are skipped when it is unset.
package testutil

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/zamalek-residents/member-registry/internal/adapters/postgres"
)

// OpenPool returns a pool against TEST_DATABASE_URL, or skips t.
func OpenPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres-backed test")
	}
	pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{MaxConns: 4})
	if err != nil {
		t.Fatalf("open postgres pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// ResetMembers empties the members table between contract subtests.
func ResetMembers(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(context.Background(), `DROP TABLE IF EXISTS members`); err != nil {
		t.Fatalf("reset members table: %v", err)
	}
}
