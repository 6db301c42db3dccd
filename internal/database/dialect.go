package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	// Name is the backend name, also used as the migrations subdirectory
	Name() string

	// DriverName is the database/sql driver to open
	DriverName() string

	// DSN builds the connection string for src
	DSN(src Source) (string, error)

	// Rebind converts ? placeholders into the backend's native form
	Rebind(query string) string

	// InsertIgnore turns a plain "INSERT INTO ..." into one that silently
	// skips rows whose primary key already exists
	InsertIgnore(query string) string

	// Tune applies pool limits and any per-backend session settings
	Tune(db *sql.DB, pool Pool) error

	// SchemaMigrationsDDL creates the table that records applied migrations
	SchemaMigrationsDDL() string
}

// Source says where the database lives. SQLite reads Path, the network
// backends read URL.
type Source struct {
	Path string
	URL  string
}

// Pool bounds the connection pool
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool is used when no limits are configured
var DefaultPool = Pool{MaxOpen: 10, MaxIdle: 5, MaxLifetime: 5 * time.Minute}

func (p Pool) apply(db *sql.DB) {
	if p.MaxOpen > 0 {
		db.SetMaxOpenConns(p.MaxOpen)
	}
	if p.MaxIdle > 0 {
		db.SetMaxIdleConns(p.MaxIdle)
	}
	if p.MaxLifetime > 0 {
		db.SetConnMaxLifetime(p.MaxLifetime)
	}
}

// DialectFor resolves a DATABASE_TYPE value
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	}
	return nil, fmt.Errorf("unsupported database type: %s", name)
}

// numberPlaceholders rewrites ? into $1, $2, ... skipping quoted literals
func numberPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

const insertPrefix = "INSERT INTO"

// replaceInsertPrefix swaps the leading INSERT INTO keyword for prefix
func replaceInsertPrefix(query, prefix string) string {
	trimmed := strings.TrimSpace(query)
	if !strings.HasPrefix(strings.ToUpper(trimmed), insertPrefix) {
		return query
	}
	return prefix + trimmed[len(insertPrefix):]
}
