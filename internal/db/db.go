// Package db opens the relational store behind the file index and applies
// its schema. PostgreSQL (pgx) and SQLite (modernc) are supported; the
// driver is chosen from the DATABASE_URL scheme.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour of an open database.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Placeholder returns the bind parameter for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// sqlitePragmas are appended to SQLite DSNs without a query string.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// ParseURL maps DATABASE_URL to a database/sql driver name, driver DSN and
// dialect. Accepted forms:
//
//	postgres://… | postgresql://…   PostgreSQL via pgx
//	sqlite://<path> | file:<path>    SQLite via modernc.org/sqlite
func ParseURL(databaseURL string) (driver, dsn string, dialect Dialect, err error) {
	switch {
	case databaseURL == "":
		return "", "", "", errors.New("DATABASE_URL is empty")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx", databaseURL, Postgres, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", "", errors.New("sqlite path is empty")
		}
		if !strings.Contains(path, "?") {
			path += "?" + sqlitePragmas
		}
		return "sqlite", path, SQLite, nil
	case strings.HasPrefix(databaseURL, "file:"):
		return "sqlite", databaseURL, SQLite, nil
	default:
		return "", "", "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", schemeOf(databaseURL))
	}
}

func schemeOf(u string) string {
	if i := strings.Index(u, ":"); i > 0 {
		return u[:i]
	}
	return u
}

// OpenDB opens a connection pool for databaseURL and checks connectivity.
func OpenDB(databaseURL string) (*sql.DB, Dialect, error) {
	driver, dsn, dialect, err := ParseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", err
	}

	// Conservative pool defaults.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Validate connectivity immediately.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, "", err
	}

	return db, dialect, nil
}
