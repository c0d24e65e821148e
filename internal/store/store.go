// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store implements the SQL-backed stores used by the template
// engine: template metadata, the template content log, the site and
// channel directory, and the cache invalidation log. Queries are built
// with squirrel so the same code runs on PostgreSQL and SQLite.
package store

import (
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"sitetemplates/internal/database"
)

var (
	// ErrNotFound is returned when a mutation targets a row that does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a write would violate a uniqueness
	// constraint: a duplicate template name, or a second default template
	// for the same site and type.
	ErrConflict = errors.New("resource conflict")
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// builder returns a statement builder with the placeholder style of driver.
func builder(driver database.Driver) sq.StatementBuilderType {
	if driver == database.DriverSQLite {
		return sq.StatementBuilder.PlaceholderFormat(sq.Question)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// isUniqueViolation reports whether err comes from a unique index.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
