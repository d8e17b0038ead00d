package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Dialect captures the SQL differences between the supported databases.
// Queries are written with ? placeholders and rebound per dialect.
type Dialect struct {
	// Name is the configuration name of the driver.
	Name string
	// DriverName is the name registered with database/sql.
	DriverName string
	// NumberedParams reports whether placeholders are $1, $2, ...
	NumberedParams bool
	// Returning reports whether INSERT ... RETURNING is supported.
	Returning bool

	schema []string
}

var dialects = map[string]Dialect{
	DriverSQLite: {
		Name:       DriverSQLite,
		DriverName: "sqlite",
		Returning:  true,
		schema:     sqliteSchema,
	},
	DriverPostgres: {
		Name:           DriverPostgres,
		DriverName:     "postgres",
		NumberedParams: true,
		Returning:      true,
		schema:         postgresSchema,
	},
	DriverMySQL: {
		Name:       DriverMySQL,
		DriverName: "mysql",
		schema:     mysqlSchema,
	},
}

// LookupDialect returns the dialect for a driver name.
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q (want %s, %s or %s)",
			name, DriverSQLite, DriverPostgres, DriverMySQL)
	}
	return d, nil
}

// Rebind rewrites ? placeholders into the dialect's native form. Question
// marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if !d.NumberedParams || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
