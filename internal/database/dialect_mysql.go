package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect targets MySQL and MariaDB
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN forces parseTime and UTC so DATETIME columns scan into comparable times
func (d *MySQLDialect) DSN(src Source) (string, error) {
	if src.URL == "" {
		return "", errors.New("mysql needs DATABASE_URL")
	}
	cfg, err := mysql.ParseDSN(src.URL)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

func (d *MySQLDialect) Rebind(query string) string {
	return query
}

func (d *MySQLDialect) InsertIgnore(query string) string {
	return replaceInsertPrefix(query, "INSERT IGNORE INTO")
}

func (d *MySQLDialect) Tune(db *sql.DB, pool Pool) error {
	pool.apply(db)
	return nil
}

func (d *MySQLDialect) SchemaMigrationsDDL() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
	)`
}
