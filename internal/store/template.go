// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"sitetemplates/internal/database"
	"sitetemplates/internal/models"
)

var templateColumns = []string{
	"id", "site_id", "template_name", "template_type", "related_file_name",
	"created_file_full_name", "created_file_ext_name", "is_default",
}

// TemplateStore handles all template metadata operations.
type TemplateStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

// NewTemplateStore creates a new TemplateStore for a database opened with driver.
func NewTemplateStore(db *sql.DB, driver database.Driver) *TemplateStore {
	return &TemplateStore{db: db, sb: builder(driver)}
}

// Insert creates a template row and returns its id. When t.IsDefault is
// set, the previous default of the same site and type is cleared in the
// same transaction.
func (s *TemplateStore) Insert(ctx context.Context, t *models.Template) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert template begin tx: %w", err)
	}
	defer tx.Rollback()

	if t.IsDefault {
		if err := s.clearDefault(ctx, tx, t.SiteID, t.Type, 0); err != nil {
			return 0, err
		}
	}

	query, args, err := s.sb.Insert("templates").
		Columns(templateColumns[1:]...).
		Values(t.SiteID, t.TemplateName, string(t.Type), t.RelatedFileName,
			t.CreatedFileFullName, t.CreatedFileExtName, t.IsDefault).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert template %q: %w", t.TemplateName, ErrConflict)
		}
		return 0, fmt.Errorf("insert template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert template commit: %w", err)
	}
	return id, nil
}

// Update overwrites every column of the template identified by t.ID.
// Returns ErrNotFound if the row does not exist.
func (s *TemplateStore) Update(ctx context.Context, t *models.Template) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update template begin tx: %w", err)
	}
	defer tx.Rollback()

	if t.IsDefault {
		if err := s.clearDefault(ctx, tx, t.SiteID, t.Type, t.ID); err != nil {
			return err
		}
	}

	query, args, err := s.sb.Update("templates").
		Set("site_id", t.SiteID).
		Set("template_name", t.TemplateName).
		Set("template_type", string(t.Type)).
		Set("related_file_name", t.RelatedFileName).
		Set("created_file_full_name", t.CreatedFileFullName).
		Set("created_file_ext_name", t.CreatedFileExtName).
		Set("is_default", t.IsDefault).
		Where(sq.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update template %d: %w", t.ID, ErrConflict)
		}
		return fmt.Errorf("update template: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update template %d: %w", t.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update template commit: %w", err)
	}
	return nil
}

// SetDefault makes the template the only default of its type within the
// site. Returns ErrNotFound if no template with that id belongs to siteID.
func (s *TemplateStore) SetDefault(ctx context.Context, siteID, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set default begin tx: %w", err)
	}
	defer tx.Rollback()

	query, args, err := s.sb.Select("template_type").
		From("templates").
		Where(sq.Eq{"id": id, "site_id": siteID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	var tmplType models.TemplateType
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&tmplType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("set default template %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("set default lookup: %w", err)
	}

	if err := s.clearDefault(ctx, tx, siteID, tmplType, id); err != nil {
		return err
	}

	query, args, err = s.sb.Update("templates").
		Set("is_default", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("set default template %d: %w", id, ErrConflict)
		}
		return fmt.Errorf("set default template: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set default commit: %w", err)
	}
	return nil
}

// clearDefault unsets is_default on every template of the site and type
// except exceptID.
func (s *TemplateStore) clearDefault(ctx context.Context, tx *sql.Tx, siteID int64, tmplType models.TemplateType, exceptID int64) error {
	query, args, err := s.sb.Update("templates").
		Set("is_default", false).
		Where(sq.Eq{"site_id": siteID, "template_type": string(tmplType), "is_default": true}).
		Where(sq.NotEq{"id": exceptID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear default templates: %w", err)
	}
	return nil
}

// Delete removes a template by id. Returns ErrNotFound if it did not exist.
func (s *TemplateStore) Delete(ctx context.Context, id int64) error {
	query, args, err := s.sb.Delete("templates").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("delete template %d: %w", id, err)
	}
	return nil
}

// FindByID retrieves a template by id. Returns nil if not found.
func (s *TemplateStore) FindByID(ctx context.Context, id int64) (*models.Template, error) {
	return s.findOne(ctx, "find template by id", sq.Eq{"id": id})
}

// FindDefault returns the default template of a type for a site, or nil.
func (s *TemplateStore) FindDefault(ctx context.Context, siteID int64, tmplType models.TemplateType) (*models.Template, error) {
	return s.findOne(ctx, "find default template", sq.Eq{
		"site_id":       siteID,
		"template_type": string(tmplType),
		"is_default":    true,
	})
}

// FindByName returns the template with the given name and type, or nil.
func (s *TemplateStore) FindByName(ctx context.Context, siteID int64, tmplType models.TemplateType, name string) (*models.Template, error) {
	return s.findOne(ctx, "find template by name", sq.Eq{
		"site_id":       siteID,
		"template_type": string(tmplType),
		"template_name": name,
	})
}

func (s *TemplateStore) findOne(ctx context.Context, op string, where sq.Eq) (*models.Template, error) {
	query, args, err := s.sb.Select(templateColumns...).
		From("templates").
		Where(where).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// NameExists reports whether any template of the site, of any type, is
// called name.
func (s *TemplateStore) NameExists(ctx context.Context, siteID int64, name string) (bool, error) {
	query, args, err := s.sb.Select("COUNT(*)").
		From("templates").
		Where(sq.Eq{"site_id": siteID, "template_name": name}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building query: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check template name: %w", err)
	}
	return n > 0, nil
}

// List returns templates matching the filter ordered by type and file name.
func (s *TemplateStore) List(ctx context.Context, f models.TemplateFilter) ([]models.Template, error) {
	q := s.sb.Select(templateColumns...).From("templates")
	if f.SiteID != 0 {
		q = q.Where(sq.Eq{"site_id": f.SiteID})
	}
	if f.Type != "" {
		q = q.Where(sq.Eq{"template_type": string(f.Type)})
	}

	query, args, err := q.OrderBy("template_type", "related_file_name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// CountByTypes returns how many templates of each type the site has.
// Types without templates are absent from the map.
func (s *TemplateStore) CountByTypes(ctx context.Context, siteID int64) (map[models.TemplateType]int, error) {
	query, args, err := s.sb.Select("template_type", "COUNT(*)").
		From("templates").
		Where(sq.Eq{"site_id": siteID}).
		GroupBy("template_type").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count templates: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TemplateType]int)
	for rows.Next() {
		var (
			raw string
			n   int
		)
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, fmt.Errorf("scan template count: %w", err)
		}
		tt, err := models.ParseTemplateType(raw)
		if err != nil {
			return nil, fmt.Errorf("count templates: %w", err)
		}
		counts[tt] = n
	}
	return counts, rows.Err()
}

// IDs returns the ids of every template of a type within the site.
func (s *TemplateStore) IDs(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]int64, error) {
	query, args, err := s.sb.Select("id").
		From("templates").
		Where(sq.Eq{"site_id": siteID, "template_type": string(tmplType)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list template ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan template id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Names returns the template names of a type within the site.
func (s *TemplateStore) Names(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error) {
	return s.column(ctx, "template_name", siteID, tmplType)
}

// RelatedFileNames returns the file names of a type within the site.
func (s *TemplateStore) RelatedFileNames(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error) {
	return s.column(ctx, "related_file_name", siteID, tmplType)
}

func (s *TemplateStore) column(ctx context.Context, col string, siteID int64, tmplType models.TemplateType) ([]string, error) {
	query, args, err := s.sb.Select(col).
		From("templates").
		Where(sq.Eq{"site_id": siteID, "template_type": string(tmplType)}).
		OrderBy("template_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list template %s: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan template %s: %w", col, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanTemplate(row interface{ Scan(...any) error }) (*models.Template, error) {
	t := &models.Template{}
	var tmplType string
	if err := row.Scan(
		&t.ID, &t.SiteID, &t.TemplateName, &tmplType, &t.RelatedFileName,
		&t.CreatedFileFullName, &t.CreatedFileExtName, &t.IsDefault,
	); err != nil {
		return nil, err
	}
	tt, err := models.ParseTemplateType(tmplType)
	if err != nil {
		return nil, err
	}
	t.Type = tt
	return t, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
