// Package db stores aggregation runs in SQLite or PostgreSQL so that
// results from many collect-stats passes can be listed and compared.
package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lu-metrics/internal/timeutil"
)

// Supported database/sql driver names.
const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

// DB wraps a database handle with the driver it was opened with.
type DB struct {
	*sql.DB
	driver string
	clock  timeutil.Clock
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open connects to dsn with the named driver. The schema is not touched;
// call MigrateUp before storing runs.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want %s or %s)", driver, DriverSQLite, DriverPgx)
	}
	if dsn == "" {
		return nil, fmt.Errorf("empty %s dsn", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection keeps PRAGMAs and :memory: databases consistent
		sqlDB.SetMaxOpenConns(1)
		for _, pragma := range sqlitePragmas {
			if _, err := sqlDB.Exec(pragma); err != nil {
				sqlDB.Close()
				return nil, fmt.Errorf("execute %q: %w", pragma, err)
			}
		}
	} else if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	return &DB{DB: sqlDB, driver: driver, clock: timeutil.RealClock{}}, nil
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string { return db.driver }

// SetClock replaces the clock used to stamp new runs.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

// rebind rewrites ? placeholders as $N for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPgx {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
