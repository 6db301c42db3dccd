package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// PostgresDialect targets PostgreSQL through lib/pq
type PostgresDialect struct{}

func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

// DSN accepts either a postgres:// URL or a key=value connection string.
// URLs must parse.
func (d *PostgresDialect) DSN(src Source) (string, error) {
	if src.URL == "" {
		return "", errors.New("postgres needs DATABASE_URL")
	}
	if strings.HasPrefix(src.URL, "postgres://") || strings.HasPrefix(src.URL, "postgresql://") {
		if _, err := pq.ParseURL(src.URL); err != nil {
			return "", fmt.Errorf("parse postgres url: %w", err)
		}
	}
	return src.URL, nil
}

func (d *PostgresDialect) Rebind(query string) string {
	return numberPlaceholders(query)
}

func (d *PostgresDialect) InsertIgnore(query string) string {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	return query + " ON CONFLICT DO NOTHING"
}

func (d *PostgresDialect) Tune(db *sql.DB, pool Pool) error {
	pool.apply(db)
	return nil
}

func (d *PostgresDialect) SchemaMigrationsDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
}
