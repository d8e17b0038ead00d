package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config describes how to open the item store.
type Config struct {
	// Driver is one of DriverSQLite, DriverPostgres or DriverMySQL.
	Driver string
	// DSN is the driver-specific data source name. For SQLite it is a file
	// path or ":memory:".
	DSN string

	MaxOpenConns int

	// Hooks run around every statement. Nil entries are skipped.
	Hooks []Hook
}

// DB wraps *sql.DB with dialect-aware placeholder rebinding, statement hooks
// and error mapping.
type DB struct {
	sqldb   *sql.DB
	dialect Dialect
	hooks   hookChain
}

// Open opens a database connection pool and verifies it with a ping.
func Open(cfg Config) (*DB, error) {
	dialect, err := LookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("opening database: empty DSN")
	}

	dsn := cfg.DSN
	memory := dialect.Name == DriverSQLite && isMemoryDSN(dsn)
	if dialect.Name == DriverSQLite && !memory {
		dsn = sqliteDSN(dsn)
	}

	sqldb, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	switch {
	case memory:
		// Every new connection to :memory: is a fresh, empty database.
		sqldb.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{
		sqldb:   sqldb,
		dialect: dialect,
		hooks:   newHookChain(cfg.Hooks),
	}, nil
}

// Dialect returns the SQL dialect of the open database.
func (d *DB) Dialect() Dialect { return d.dialect }

// Raw returns the underlying *sql.DB.
func (d *DB) Raw() *sql.DB { return d.sqldb }

// Close closes all pooled connections.
func (d *DB) Close() error { return d.sqldb.Close() }

// Ping verifies that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sqldb.PingContext(ctx)
}

// ExecContext executes a statement that returns no rows.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = d.dialect.Rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	res, err := d.sqldb.ExecContext(ctx, query, args...)
	err = mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return res, err
}

// QueryContext executes a query that returns rows. The caller must close them.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	query = d.dialect.Rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	rows, err := d.sqldb.QueryContext(ctx, query, args...)
	err = mapErr(err)
	d.hooks.After(ctx, query, args, time.Since(start), err)
	return rows, err
}

// QueryRowContext executes a query expected to return at most one row.
// Scan on the returned row reports ErrNotFound when nothing matched.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	query = d.dialect.Rebind(query)
	start := time.Now()
	d.hooks.Before(ctx, query, args)
	raw := d.sqldb.QueryRowContext(ctx, query, args...)
	d.hooks.After(ctx, query, args, time.Since(start), raw.Err())
	return &Row{raw: raw}
}

// Row wraps *sql.Row and maps its errors.
type Row struct {
	raw *sql.Row
}

// Scan copies the matched row into dest.
func (r *Row) Scan(dest ...any) error {
	return mapErr(r.raw.Scan(dest...))
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, ":memory:?") || strings.Contains(dsn, "mode=memory")
}

// sqliteDSN adds the connection pragmas unless the caller already set some.
// Pragmas in the DSN apply to every pooled connection, not just the first.
func sqliteDSN(path string) string {
	if strings.Contains(path, "_pragma=") {
		return path
	}
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}
