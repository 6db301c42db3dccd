package database

import (
	"context"
	"database/sql"
	"fmt"

	"sundaytable/internal/config"
)

// DB is the shared connection pool. Queries are written with ? placeholders
// and rebound for the active dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite database at dbPath with the default pool
func Initialize(dbPath string) (*DB, error) {
	return Open(context.Background(), NewSQLiteDialect(), Source{Path: dbPath}, DefaultPool)
}

// InitializeWithConfig opens the backend named by cfg.DatabaseType
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := DialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}
	pool := Pool{
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
	}
	return Open(context.Background(), dialect, Source{Path: cfg.DatabasePath, URL: cfg.DatabaseURL}, pool)
}

// Open connects, pings and tunes a pool for dialect
func Open(ctx context.Context, dialect Dialect, src Source, pool Pool) (*DB, error) {
	dsn, err := dialect.DSN(src)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s dsn: %w", dialect.Name(), err)
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name(), err)
	}
	if err := dialect.Tune(sqlDB, pool); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.Rebind(query), args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.Rebind(query), args...)
}
