package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect names the SQL backend behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const pgUniqueViolation = "23505"

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// DB is a connection pool plus the dialect its queries are written for.
// Queries use '?' placeholders and go through Rebind before execution.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New creates a new database connection pool.
func New(driver, dataSourceName string) (*DB, error) {
	switch Dialect(driver) {
	case SQLite:
		sep := "?"
		if strings.Contains(dataSourceName, "?") {
			sep = "&"
		}
		db, err := sql.Open("sqlite", dataSourceName+sep+"_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
		if err != nil {
			return nil, err
		}
		// A single connection serializes writers and keeps :memory: databases
		// shared across the pool.
		db.SetMaxOpenConns(1)
		return wrap(db, SQLite)
	case Postgres:
		db, err := sql.Open("pgx", dataSourceName)
		if err != nil {
			return nil, err
		}
		return wrap(db, Postgres)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func wrap(db *sql.DB, dialect Dialect) (*DB, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: dialect}, nil
}

// Migrate applies the embedded goose migrations for the DB's dialect.
func Migrate(ctx context.Context, db *DB) error {
	dir := "migrations/sqlite"
	gooseDialect := goose.DialectSQLite3
	if db.Dialect == Postgres {
		dir = "migrations/postgres"
		gooseDialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Rebind rewrites '?' placeholders into the dialect's native form.
func (db *DB) Rebind(query string) string {
	if db.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

// IsUniqueViolation reports whether err comes from a UNIQUE constraint.
func (db *DB) IsUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

// Optimize refreshes planner statistics.
func (db *DB) Optimize(ctx context.Context) error {
	stmt := "PRAGMA optimize"
	if db.Dialect == Postgres {
		stmt = "ANALYZE"
	}
	_, err := db.ExecContext(ctx, stmt)
	return err
}
