package db

import (
	"context"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T, hooks ...Hook) *DB {
	t.Helper()

	database, err := Open(Config{Driver: DriverSQLite, DSN: ":memory:", Hooks: hooks})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := database.EnsureSchema(context.Background()); err != nil {
		database.Close()
		t.Fatalf("creating test database schema: %v", err)
	}

	t.Cleanup(func() { database.Close() })

	return database
}
