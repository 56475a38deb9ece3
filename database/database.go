package database

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind DB
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var (
	DB        *sql.DB
	DBDialect Dialect
)

// DialectFor picks the driver for a DATABASE_URL. postgres:// and
// postgresql:// URLs go to Postgres; anything else is a SQLite file path.
func DialectFor(dbURL string) Dialect {
	lower := strings.ToLower(dbURL)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// InitDatabase initializes the database connection
func InitDatabase(dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	dialect := DialectFor(dbURL)
	dsn := dbURL
	if dialect == SQLite {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
		dsn = strings.TrimPrefix(dsn, "file:")
		dsn = "file:" + dsn + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if dialect == SQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	DBDialect = dialect
	log.Printf("Successfully connected to %s database", dialect)
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	idColumn := "id SERIAL PRIMARY KEY"
	priceColumn := "price DECIMAL(12,2) NOT NULL"
	if DBDialect == SQLite {
		idColumn = "id INTEGER PRIMARY KEY AUTOINCREMENT"
		priceColumn = "price REAL NOT NULL"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			` + idColumn + `,
			product_name TEXT NOT NULL,
			` + priceColumn + `,
			currency VARCHAR(8) NOT NULL DEFAULT 'NPR',
			source_url TEXT NOT NULL DEFAULT '',
			via VARCHAR(64) NOT NULL DEFAULT '',
			query TEXT NOT NULL DEFAULT '',
			checked_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_source ON quotes (source_url, checked_at)`,
	}

	for _, query := range queries {
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Rebind rewrites ? placeholders to $n for Postgres
func Rebind(query string) string {
	if DBDialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}
