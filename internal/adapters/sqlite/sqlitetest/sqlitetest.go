// Package sqlitetest opens migrated in-memory SQLite databases for adapter tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/weddingpass/pass-api/internal/adapters/sqlite"
)

// OpenMigrated returns a fresh in-memory database with the schema applied.
func OpenMigrated(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
