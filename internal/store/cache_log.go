// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records cache invalidation events in the database for
// audit and debugging purposes. Each entry captures what was invalidated,
// when, and why (insert/update/default/delete).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"

	"sitetemplates/internal/database"
)

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(db *sql.DB, driver database.Driver) *CacheLogStore {
	return &CacheLogStore{db: db, sb: builder(driver)}
}

// Log records a cache invalidation event. Failures are logged, never returned.
func (s *CacheLogStore) Log(ctx context.Context, entityType string, entityID int64, action string) {
	query, args, err := s.sb.Insert("cache_invalidation_log").
		Columns("entity_type", "entity_id", "action", "invalidated_at").
		Values(entityType, entityID, action, time.Now().UTC()).
		ToSql()
	if err == nil {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		slog.Warn("failed to log cache invalidation",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged",
		"entity_type", entityType,
		"entity_id", entityID,
		"action", action,
	)
}

// RecentEntries returns the most recent cache invalidation events for
// debugging. Limited to the specified count.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	query, args, err := s.sb.Select("id", "entity_type", "entity_id", "action", "invalidated_at").
		From("cache_invalidation_log").
		OrderBy("invalidated_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	defer rows.Close()

	var entries []CacheLogEntry
	for rows.Next() {
		var e CacheLogEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.InvalidatedAt); err != nil {
			return nil, fmt.Errorf("scan cache log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CacheLogEntry represents a single cache invalidation event.
type CacheLogEntry struct {
	ID            int64
	EntityType    string
	EntityID      int64
	Action        string
	InvalidatedAt time.Time
}
