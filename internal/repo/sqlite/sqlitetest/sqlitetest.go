// Package sqlitetest provides migrated throwaway SQLite databases for tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/migrations"
	"github.com/ivankudzin/heartsync/internal/repo/sqlite"
)

func New(t testing.TB) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	runner, err := migrations.NewSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("create migrator: %v", err)
	}
	if err := runner.Up(); err != nil {
		_ = runner.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("close migrator: %v", err)
	}

	db, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
