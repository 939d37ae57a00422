// Package dbtest opens a Postgres pool for integration tests.
package dbtest

import (
	"context"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/db"
)

const testLockID int64 = 734120001

// NewPool connects to TEST_DATABASE_URL, applies migrations and holds an
// advisory lock for the lifetime of the test so packages do not trample each
// other's rows. The test is skipped when no database is reachable.
func NewPool(t *testing.T, migrations fs.FS, migrateLockID int64) *db.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.OpenWithOptions(ctx, dsn, db.Options{MaxConns: 8})
	if err != nil {
		t.Skipf("skipping Postgres integration test: %v", err)
	}
	t.Cleanup(pool.Close)

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire lock conn: %v", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, testLockID); err != nil {
		conn.Release()
		t.Fatalf("acquire test lock: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, testLockID)
		conn.Release()
	})

	if err := db.Migrate(ctx, pool, migrations, migrateLockID); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

// Truncate empties the given tables.
func Truncate(t *testing.T, pool *db.Pool, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := pool.Exec(context.Background(), `TRUNCATE `+table+` CASCADE`); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}
