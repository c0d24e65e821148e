// Package database handles SQL connection management and migration
// execution using goose. PostgreSQL (through pgx) is the production
// backend; SQLite is supported for single-node installs and tests.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// Driver names a supported database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseDriver validates a driver name from configuration.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case DriverPostgres, DriverSQLite:
		return Driver(s), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// sqlDriverName is the database/sql driver registered for d.
func (d Driver) sqlDriverName() string {
	if d == DriverSQLite {
		return "sqlite"
	}
	return "pgx"
}

// gooseDialect is the goose dialect for d.
func (d Driver) gooseDialect() string {
	if d == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// migrationsDir is the embedded directory holding d's migrations.
func (d Driver) migrationsDir() string {
	return "migrations/" + string(d)
}

// Connect opens a connection pool for the given driver and DSN.
// It verifies the connection with a ping before returning.
func Connect(driver Driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver.sqlDriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	switch driver {
	case DriverSQLite:
		// SQLite allows one writer; a single connection also keeps
		// in-memory databases from splitting per connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

// Migrate runs all pending goose migrations for the driver from the
// embedded SQL files.
func Migrate(db *sql.DB, driver Driver) error {
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(driver.gooseDialect()); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, driver.migrationsDir()); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied", "driver", driver)
	return nil
}
