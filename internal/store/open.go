package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported SQL dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("missing DATABASE_URL / NETLIFY_DATABASE_URL")

// DialectFor picks the dialect for a DSN: postgres:// and postgresql:// URLs
// are PostgreSQL, anything else is treated as a SQLite database path.
func DialectFor(dsn string) string {
	l := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(l, "postgres://") || strings.HasPrefix(l, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// OpenDB opens the database behind dsn and reports its dialect. It does not
// touch the network; the first query does.
func OpenDB(dsn string) (*sql.DB, string, error) {
	dialect := DialectFor(dsn)
	if dialect == DialectPostgres {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open postgres: %w", err)
		}
		return db, dialect, nil
	}
	db, err := openSQLite(dsn)
	if err != nil {
		return nil, "", err
	}
	return db, dialect, nil
}

// openSQLite opens (and creates if missing) a SQLite database file with a
// busy timeout and WAL journaling. An in-memory database lives only as long
// as its connection, so it is pinned to a single one.
func openSQLite(dsn string) (*sql.DB, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	inMemory := path == ":memory:" || strings.Contains(dsn, "mode=memory")
	if dir := filepath.Dir(path); !inMemory && dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	return db, nil
}
