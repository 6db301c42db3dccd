package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteParams makes concurrent writers wait for each other instead of
// failing with SQLITE_BUSY, and takes the write lock at BEGIN so a
// read-modify-write transaction cannot be interleaved.
const sqliteParams = "_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"

// SQLiteDialect targets a single database file
type SQLiteDialect struct{}

func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

func (d *SQLiteDialect) DSN(src Source) (string, error) {
	if src.Path == "" {
		return "", errors.New("sqlite needs a database path")
	}
	sep := "?"
	if strings.Contains(src.Path, "?") {
		sep = "&"
	}
	return src.Path + sep + sqliteParams, nil
}

func (d *SQLiteDialect) Rebind(query string) string {
	return query
}

func (d *SQLiteDialect) InsertIgnore(query string) string {
	return replaceInsertPrefix(query, "INSERT OR IGNORE INTO")
}

// Tune switches the file to WAL journaling
func (d *SQLiteDialect) Tune(db *sql.DB, pool Pool) error {
	pool.apply(db)
	_, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL")
	return err
}

func (d *SQLiteDialect) SchemaMigrationsDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}
