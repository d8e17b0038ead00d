package db

import (
	"context"
	"fmt"
)

// Timestamps are stored as Unix microseconds so ordering is exact and the
// column type is the same integer on every dialect.
//
// name_key holds the Unicode case-folded name, computed in Go. Uniqueness and
// search compare against it because SQL LOWER() only folds ASCII in SQLite.

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    name_key    TEXT NOT NULL,
    description TEXT,
    price       INTEGER NOT NULL CHECK (price > 0),
    quantity    INTEGER NOT NULL CHECK (quantity >= 0),
    category    TEXT NOT NULL,
    unit        TEXT,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name_key ON items(name_key)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
	`CREATE INDEX IF NOT EXISTS idx_items_updated_at ON items(updated_at)`,
}

var postgresSchema = []string{`
CREATE TABLE IF NOT EXISTS items (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    name_key    VARCHAR(400) NOT NULL,
    description VARCHAR(500),
    price       BIGINT NOT NULL CHECK (price > 0),
    quantity    INTEGER NOT NULL CHECK (quantity >= 0),
    category    VARCHAR(50) NOT NULL,
    unit        VARCHAR(20),
    created_at  BIGINT NOT NULL,
    updated_at  BIGINT NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name_key ON items(name_key)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
	`CREATE INDEX IF NOT EXISTS idx_items_updated_at ON items(updated_at)`,
}

// MySQL has no CREATE INDEX IF NOT EXISTS, so indexes are declared inline.
// The binary collation keeps category matching case-sensitive.
var mysqlSchema = []string{`
CREATE TABLE IF NOT EXISTS items (
    id          BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    name        VARCHAR(100) NOT NULL,
    name_key    VARCHAR(400) NOT NULL,
    description VARCHAR(500),
    price       BIGINT NOT NULL CHECK (price > 0),
    quantity    INT NOT NULL CHECK (quantity >= 0),
    category    VARCHAR(50) NOT NULL,
    unit        VARCHAR(20),
    created_at  BIGINT NOT NULL,
    updated_at  BIGINT NOT NULL,
    UNIQUE INDEX idx_items_name_key (name_key),
    INDEX idx_items_category (category),
    INDEX idx_items_updated_at (updated_at)
) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
}

// EnsureSchema creates all tables and indexes if they don't already exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range d.dialect.schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}
