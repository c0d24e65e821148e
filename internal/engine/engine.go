// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine selects the template that governs a site page and keeps
// each template's metadata record, content file and history in step.
//
// A template is split across two stores: the metadata row (name, type,
// default flag, file name) and the content file under the owning site's
// root directory. Every mutation writes both, appends a history entry and
// invalidates the template record cache. Resolution reads records through
// that cache and falls back to the site default for the type, and finally
// to an unconfigured placeholder, so it never fails for missing data.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"sitetemplates/internal/models"
	"sitetemplates/internal/storage"
)

// DefaultMaxImportNameAttempts bounds the import-name search when no
// explicit limit is configured.
const DefaultMaxImportNameAttempts = 1000

var (
	// ErrSiteNotFound is returned by mutations whose site does not exist.
	ErrSiteNotFound = errors.New("site not found")

	// ErrImportNameExhausted is returned when no free import name was
	// found within the configured number of attempts.
	ErrImportNameExhausted = errors.New("import name attempts exhausted")

	// ErrInvalidFileName is returned when a template's RelatedFileName
	// does not name a single file inside its template directory.
	ErrInvalidFileName = errors.New("invalid template file name")
)

// TemplateStore persists template metadata records.
type TemplateStore interface {
	Insert(ctx context.Context, t *models.Template) (int64, error)
	Update(ctx context.Context, t *models.Template) error
	SetDefault(ctx context.Context, siteID, id int64) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Template, error)
	FindDefault(ctx context.Context, siteID int64, tmplType models.TemplateType) (*models.Template, error)
	FindByName(ctx context.Context, siteID int64, tmplType models.TemplateType, name string) (*models.Template, error)
	NameExists(ctx context.Context, siteID int64, name string) (bool, error)
	IDs(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]int64, error)
	List(ctx context.Context, f models.TemplateFilter) ([]models.Template, error)
	CountByTypes(ctx context.Context, siteID int64) (map[models.TemplateType]int, error)
	Names(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error)
	RelatedFileNames(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error)
}

// LogStore keeps the append-only content history.
type LogStore interface {
	Append(ctx context.Context, l *models.TemplateLog) error
	ListByTemplateID(ctx context.Context, templateID int64) ([]*models.TemplateLog, error)
	Latest(ctx context.Context, templateID int64) (*models.TemplateLog, error)
}

// ContentStore holds template content by path.
type ContentStore interface {
	Read(ctx context.Context, path string) (string, bool, error)
	Stage(ctx context.Context, path, content string) (storage.Staged, error)
	Delete(ctx context.Context, path string) error
}

// Directory looks up sites and channels. Both methods return nil when
// the entity does not exist.
type Directory interface {
	Site(ctx context.Context, id int64) (*models.Site, error)
	Channel(ctx context.Context, id int64) (*models.Channel, error)
}

// Cache holds template records by id. Implementations handle their own
// failures; a failed Get is a miss.
type Cache interface {
	Get(ctx context.Context, id int64) (*models.Template, bool)
	Set(ctx context.Context, t *models.Template)
	Invalidate(ctx context.Context, ids ...int64)
}

// InvalidationLog records cache invalidations. Best-effort.
type InvalidationLog interface {
	Log(ctx context.Context, entityType string, entityID int64, action string)
}

// Metrics receives engine events.
type Metrics interface {
	ObserveResolution(tmplType, source string)
	ObserveMutation(op string, err error)
	ObserveInvalidation(n int)
}

// Engine implements template mutation, resolution and import naming on
// top of its stores. It is safe for concurrent use.
type Engine struct {
	templates TemplateStore
	logs      LogStore
	content   ContentStore
	dir       Directory
	cache     Cache

	// Optional observers. Nil means the event is dropped.
	cacheLog InvalidationLog
	metrics  Metrics

	maxImportNameAttempts int
}

// New creates a template engine.
func New(templates TemplateStore, logs LogStore, content ContentStore, dir Directory, cache Cache) *Engine {
	return &Engine{
		templates:             templates,
		logs:                  logs,
		content:               content,
		dir:                   dir,
		cache:                 cache,
		maxImportNameAttempts: DefaultMaxImportNameAttempts,
	}
}

// SetObservers configures the optional invalidation log and metrics sink.
// Call after New() and before the engine is shared.
func (e *Engine) SetObservers(cacheLog InvalidationLog, metrics Metrics) {
	e.cacheLog = cacheLog
	e.metrics = metrics
}

// SetMaxImportNameAttempts overrides the import-name search bound.
// Values below 1 restore the default.
func (e *Engine) SetMaxImportNameAttempts(n int) {
	if n < 1 {
		n = DefaultMaxImportNameAttempts
	}
	e.maxImportNameAttempts = n
}

// TemplateFilePath returns where the content of tmpl lives for site.
// Index page templates sit in the site root, content templates under
// template/content, everything else under template.
func TemplateFilePath(site *models.Site, tmpl *models.Template) string {
	switch tmpl.Type {
	case models.TemplateTypeIndexPage:
		return filepath.Join(site.RootDir, tmpl.RelatedFileName)
	case models.TemplateTypeContent:
		return filepath.Join(site.RootDir, "template", "content", tmpl.RelatedFileName)
	default:
		return filepath.Join(site.RootDir, "template", tmpl.RelatedFileName)
	}
}

// checkFileName rejects file names that would resolve to the template
// directory itself or to a path outside it.
func checkFileName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == ".":
		return fmt.Errorf("%w: empty", ErrInvalidFileName)
	case filepath.IsAbs(name), strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFileName, name)
	case strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q contains ..", ErrInvalidFileName, name)
	}
	return nil
}

// site resolves siteID, turning a missing site into ErrSiteNotFound.
func (e *Engine) site(ctx context.Context, siteID int64) (*models.Site, error) {
	site, err := e.dir.Site(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, ErrSiteNotFound
	}
	return site, nil
}

// invalidate drops ids from the cache and records each invalidation.
func (e *Engine) invalidate(ctx context.Context, action string, ids ...int64) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return
	}
	e.cache.Invalidate(ctx, ids...)
	if e.cacheLog != nil {
		for _, id := range ids {
			e.cacheLog.Log(ctx, "template", id, action)
		}
	}
	if e.metrics != nil {
		e.metrics.ObserveInvalidation(len(ids))
	}
	slog.Debug("template cache entries invalidated", "action", action, "ids", ids)
}

func (e *Engine) observeMutation(op string, err error) {
	if e.metrics != nil {
		e.metrics.ObserveMutation(op, err)
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
