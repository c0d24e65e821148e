// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"

	"sitetemplates/internal/database"
	"sitetemplates/internal/models"
)

// SiteStore reads and writes site records. Root directories are resolved
// against the web root the store was created with.
type SiteStore struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	webRoot string
}

// NewSiteStore creates a new SiteStore. webRoot is the directory every
// site's site_dir is relative to.
func NewSiteStore(db *sql.DB, driver database.Driver, webRoot string) *SiteStore {
	return &SiteStore{db: db, sb: builder(driver), webRoot: webRoot}
}

// Create inserts a site and returns it with its id and root directory set.
func (s *SiteStore) Create(ctx context.Context, name, siteDir string) (*models.Site, error) {
	query, args, err := s.sb.Insert("sites").
		Columns("name", "site_dir").
		Values(name, siteDir).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	site := &models.Site{Name: name, SiteDir: siteDir}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&site.ID); err != nil {
		return nil, fmt.Errorf("create site: %w", err)
	}
	site.RootDir = s.rootDir(siteDir)
	return site, nil
}

// FindByID retrieves a site by id. Returns nil if not found.
func (s *SiteStore) FindByID(ctx context.Context, id int64) (*models.Site, error) {
	query, args, err := s.sb.Select("id", "name", "site_dir").
		From("sites").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	site := &models.Site{}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&site.ID, &site.Name, &site.SiteDir)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find site by id: %w", err)
	}
	site.RootDir = s.rootDir(site.SiteDir)
	return site, nil
}

// List returns every site ordered by id.
func (s *SiteStore) List(ctx context.Context) ([]models.Site, error) {
	query, args, err := s.sb.Select("id", "name", "site_dir").
		From("sites").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []models.Site
	for rows.Next() {
		var site models.Site
		if err := rows.Scan(&site.ID, &site.Name, &site.SiteDir); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		site.RootDir = s.rootDir(site.SiteDir)
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *SiteStore) rootDir(siteDir string) string {
	return filepath.Join(s.webRoot, siteDir)
}

// ChannelStore reads and writes channel records.
type ChannelStore struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	driver database.Driver
}

// NewChannelStore creates a new ChannelStore.
func NewChannelStore(db *sql.DB, driver database.Driver) *ChannelStore {
	return &ChannelStore{db: db, sb: builder(driver), driver: driver}
}

// Create inserts a channel. A non-zero c.ID is kept, which is how a
// site's root channel gets the site's id.
func (s *ChannelStore) Create(ctx context.Context, c *models.Channel) error {
	cols := []string{"site_id", "name", "channel_template_id", "content_template_id"}
	vals := []any{c.SiteID, c.Name, c.ChannelTemplateID, c.ContentTemplateID}
	if c.ID != 0 {
		cols = append([]string{"id"}, cols...)
		vals = append([]any{c.ID}, vals...)
	}

	query, args, err := s.sb.Insert("channels").
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	explicitID := c.ID != 0
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&c.ID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create channel %d: %w", c.ID, ErrConflict)
		}
		return fmt.Errorf("create channel: %w", err)
	}

	// Explicit ids do not advance the postgres serial sequence.
	if explicitID && s.driver == database.DriverPostgres {
		if _, err := s.db.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('channels', 'id'), (SELECT MAX(id) FROM channels))`,
		); err != nil {
			return fmt.Errorf("reset channel sequence: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a channel by id. Returns nil if not found.
func (s *ChannelStore) FindByID(ctx context.Context, id int64) (*models.Channel, error) {
	query, args, err := s.sb.Select("id", "site_id", "name", "channel_template_id", "content_template_id").
		From("channels").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	c := &models.Channel{}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.SiteID, &c.Name, &c.ChannelTemplateID, &c.ContentTemplateID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find channel by id: %w", err)
	}
	return c, nil
}

// SetTemplates points a channel at explicit channel and content templates.
// Zero ids make the channel fall back to the site defaults.
func (s *ChannelStore) SetTemplates(ctx context.Context, id, channelTemplateID, contentTemplateID int64) error {
	query, args, err := s.sb.Update("channels").
		Set("channel_template_id", channelTemplateID).
		Set("content_template_id", contentTemplateID).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set channel templates: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("set channel templates %d: %w", id, err)
	}
	return nil
}

// Directory answers site and channel lookups for the template engine.
type Directory struct {
	Sites    *SiteStore
	Channels *ChannelStore
}

// NewDirectory combines a site and a channel store.
func NewDirectory(sites *SiteStore, channels *ChannelStore) *Directory {
	return &Directory{Sites: sites, Channels: channels}
}

// Site returns the site with the given id, or nil.
func (d *Directory) Site(ctx context.Context, id int64) (*models.Site, error) {
	return d.Sites.FindByID(ctx, id)
}

// Channel returns the channel with the given id, or nil.
func (d *Directory) Channel(ctx context.Context, id int64) (*models.Channel, error) {
	return d.Channels.FindByID(ctx, id)
}
