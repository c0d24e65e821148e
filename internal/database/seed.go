package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the database with initial development data.
// It creates a main site with its root channel if no site exists yet.
// Default templates are created separately by the engine because they
// also need files on disk.
func Seed(db *sql.DB, driver Driver) error {
	// Check if any sites exist already.
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sites").Scan(&count); err != nil {
		return fmt.Errorf("seed check sites: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO sites (id, name, site_dir) VALUES (1, 'Main Site', 'main')`); err != nil {
		return fmt.Errorf("seed insert site: %w", err)
	}

	// The root channel shares its id with the site.
	if _, err := tx.Exec(`INSERT INTO channels (id, site_id, name) VALUES (1, 1, 'Home')`); err != nil {
		return fmt.Errorf("seed insert root channel: %w", err)
	}

	if driver == DriverPostgres {
		// Explicit ids do not advance the serial sequences.
		for _, table := range []string{"sites", "channels"} {
			if _, err := tx.Exec(fmt.Sprintf(
				`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT MAX(id) FROM %s))`, table, table,
			)); err != nil {
				return fmt.Errorf("seed reset %s sequence: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with main site", "site_id", 1, "site_dir", "main")
	return nil
}
