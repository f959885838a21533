package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestSQLiteUpDownRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartsync.db")

	runner, err := NewSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("new sqlite runner: %v", err)
	}
	defer func() { _ = runner.Close() }()

	if err := runner.Up(); err != nil {
		t.Fatalf("up: %v", err)
	}
	if err := runner.Up(); err != nil {
		t.Fatalf("second up should be a no-op: %v", err)
	}

	version, dirty, err := runner.Version()
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("unexpected version: %d dirty=%v", version, dirty)
	}

	assertTableCount(t, path, 5)

	if err := runner.Down(1); err != nil {
		t.Fatalf("down: %v", err)
	}
	assertTableCount(t, path, 0)
}

func TestNewRejectsUnknownDialect(t *testing.T) {
	if _, err := New("mysql", "dsn", nil); err == nil {
		t.Fatalf("expected error for unsupported dialect")
	}
}

func assertTableCount(t *testing.T, path string, want int) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	var got int
	err = db.QueryRow(`
SELECT COUNT(*)
FROM sqlite_master
WHERE type = 'table' AND name IN ('users', 'profiles', 'swipes', 'matches', 'messages')
`).Scan(&got)
	if err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected table count: got %d want %d", got, want)
	}
}
