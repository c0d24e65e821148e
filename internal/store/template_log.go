// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"sitetemplates/internal/database"
	"sitetemplates/internal/models"
)

var templateLogColumns = []string{
	"id", "template_id", "site_id", "user_id",
	"content_length", "content", "content_hash", "created_at",
}

// TemplateLogStore provides append-only access to template content history.
type TemplateLogStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewTemplateLogStore creates a new TemplateLogStore backed by the given database.
func NewTemplateLogStore(db *sql.DB, driver database.Driver) *TemplateLogStore {
	return &TemplateLogStore{db: db, sb: builder(driver)}
}

// scanTemplateLog scans a single template_logs row into a TemplateLog.
func scanTemplateLog(scanner interface{ Scan(...any) error }) (*models.TemplateLog, error) {
	var l models.TemplateLog
	err := scanner.Scan(
		&l.ID, &l.TemplateID, &l.SiteID, &l.UserID,
		&l.ContentLength, &l.Content, &l.ContentHash, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Append stores a new log entry. A zero ID or CreatedAt is filled in.
func (s *TemplateLogStore) Append(ctx context.Context, l *models.TemplateLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query, args, err := s.sb.Insert("template_logs").
		Columns(templateLogColumns...).
		Values(l.ID.String(), l.TemplateID, l.SiteID, l.UserID,
			l.ContentLength, l.Content, l.ContentHash, l.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append template log: %w", err)
	}
	return nil
}

// ListByTemplateID returns all log entries for a template, newest first.
func (s *TemplateLogStore) ListByTemplateID(ctx context.Context, templateID int64) ([]*models.TemplateLog, error) {
	query, args, err := s.sb.Select(templateLogColumns...).
		From("template_logs").
		Where(sq.Eq{"template_id": templateID}).
		OrderBy("created_at DESC", "seq DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list template logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.TemplateLog
	for rows.Next() {
		l, err := scanTemplateLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Latest returns the newest log entry of a template, or nil if it has none.
func (s *TemplateLogStore) Latest(ctx context.Context, templateID int64) (*models.TemplateLog, error) {
	query, args, err := s.sb.Select(templateLogColumns...).
		From("template_logs").
		Where(sq.Eq{"template_id": templateID}).
		OrderBy("created_at DESC", "seq DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	l, err := scanTemplateLog(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest template log: %w", err)
	}
	return l, nil
}

// FindByID returns a single log entry by its ID.
func (s *TemplateLogStore) FindByID(ctx context.Context, id uuid.UUID) (*models.TemplateLog, error) {
	query, args, err := s.sb.Select(templateLogColumns...).
		From("template_logs").
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	l, err := scanTemplateLog(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template log: %w", err)
	}
	return l, nil
}
