// Package testutil provides shared helpers for integration tests. Helpers
// skip the test when CHARTER_TEST_DSN is unset, so unit tests run without
// a database.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"charter/internal/infra"
	"charter/migrations"
)

const dsnEnv = "CHARTER_TEST_DSN"

var (
	migrateOnce sync.Once
	migrateErr  error
)

// NewPool connects to the test database and applies migrations once per
// test binary. The pool is closed when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping integration test")
	}
	ctx := context.Background()
	pool, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	migrateOnce.Do(func() {
		migrateErr = infra.Migrate(ctx, pool, migrations.FS, slog.Default())
	})
	if migrateErr != nil {
		t.Fatalf("testutil.NewPool: migrate: %v", migrateErr)
	}
	return pool
}

// NewTx opens a transaction that is rolled back when the test finishes,
// giving each test an isolated view of the schema.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := NewPool(t)
	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}
