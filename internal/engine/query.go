// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"fmt"
	"strings"

	"sitetemplates/internal/models"
	"sitetemplates/internal/store"
)

// GetTemplate returns the template with the given id, or nil.
func (e *Engine) GetTemplate(ctx context.Context, id int64) (*models.Template, error) {
	if id <= 0 {
		return nil, nil
	}
	return e.template(ctx, id)
}

// CountTemplatesByType returns the number of templates of each type the
// site has. Types without templates are absent from the map.
func (e *Engine) CountTemplatesByType(ctx context.Context, siteID int64) (map[models.TemplateType]int, error) {
	return e.templates.CountByTypes(ctx, siteID)
}

// ListTemplatesByType returns the site's templates of one type.
func (e *Engine) ListTemplatesByType(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]models.Template, error) {
	return e.templates.List(ctx, models.TemplateFilter{SiteID: siteID, Type: tmplType})
}

// ListTemplatesBySite returns every template of the site.
func (e *Engine) ListTemplatesBySite(ctx context.Context, siteID int64) ([]models.Template, error) {
	return e.templates.List(ctx, models.TemplateFilter{SiteID: siteID})
}

// ListFileTemplates returns the site's standalone file templates.
func (e *Engine) ListFileTemplates(ctx context.Context, siteID int64) ([]models.Template, error) {
	return e.ListTemplatesByType(ctx, siteID, models.TemplateTypeFile)
}

// FileTemplateIDs returns the ids of the site's file templates.
func (e *Engine) FileTemplateIDs(ctx context.Context, siteID int64) ([]int64, error) {
	return e.templates.IDs(ctx, siteID, models.TemplateTypeFile)
}

// TemplateNames returns the names of the site's templates of one type.
func (e *Engine) TemplateNames(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error) {
	return e.templates.Names(ctx, siteID, tmplType)
}

// RelatedFileNames returns the lowercased file names of the site's
// templates of one type, for case-insensitive collision checks.
func (e *Engine) RelatedFileNames(ctx context.Context, siteID int64, tmplType models.TemplateType) ([]string, error) {
	names, err := e.templates.RelatedFileNames(ctx, siteID, tmplType)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.ToLower(n)
	}
	return names, nil
}

// GetDefaultTemplate returns the site default of a type, or an
// unconfigured placeholder when there is none.
func (e *Engine) GetDefaultTemplate(ctx context.Context, siteID int64, tmplType models.TemplateType) (Resolution, error) {
	return e.resolve(ctx, siteID, tmplType, 0)
}

// DefaultTemplateID returns the id of the site default of a type, or 0.
func (e *Engine) DefaultTemplateID(ctx context.Context, siteID int64, tmplType models.TemplateType) (int64, error) {
	def, err := e.defaultTemplate(ctx, siteID, tmplType)
	if err != nil || def == nil {
		return 0, err
	}
	return def.ID, nil
}

// GetTemplateByName returns the template with the given name, or nil.
func (e *Engine) GetTemplateByName(ctx context.Context, siteID int64, tmplType models.TemplateType, name string) (*models.Template, error) {
	return e.templates.FindByName(ctx, siteID, tmplType, name)
}

// TemplateIDByName returns the id of the named template, or 0.
func (e *Engine) TemplateIDByName(ctx context.Context, siteID int64, tmplType models.TemplateType, name string) (int64, error) {
	tmpl, err := e.templates.FindByName(ctx, siteID, tmplType, name)
	if err != nil || tmpl == nil {
		return 0, err
	}
	return tmpl.ID, nil
}

// CreatedFileFullName returns the output path pattern of a template, or
// "" when the template does not exist.
func (e *Engine) CreatedFileFullName(ctx context.Context, templateID int64) (string, error) {
	tmpl, err := e.GetTemplate(ctx, templateID)
	if err != nil || tmpl == nil {
		return "", err
	}
	return tmpl.CreatedFileFullName, nil
}

// TemplateName returns the name of a template, or "" when it does not exist.
func (e *Engine) TemplateName(ctx context.Context, templateID int64) (string, error) {
	tmpl, err := e.GetTemplate(ctx, templateID)
	if err != nil || tmpl == nil {
		return "", err
	}
	return tmpl.TemplateName, nil
}

// GetContent returns the content of a stored template. A template whose
// file is missing has empty content.
func (e *Engine) GetContent(ctx context.Context, templateID int64) (string, error) {
	tmpl, err := e.GetTemplate(ctx, templateID)
	if err != nil {
		return "", err
	}
	if tmpl == nil {
		return "", fmt.Errorf("get content of template %d: %w", templateID, store.ErrNotFound)
	}
	site, err := e.site(ctx, tmpl.SiteID)
	if err != nil {
		return "", fmt.Errorf("get content of template %d: %w", templateID, err)
	}
	return e.TemplateContent(ctx, site, tmpl)
}

// TemplateContent returns the content of tmpl in site. Placeholders and
// missing files yield "".
func (e *Engine) TemplateContent(ctx context.Context, site *models.Site, tmpl *models.Template) (string, error) {
	if tmpl.ID == 0 && tmpl.RelatedFileName == "" {
		return "", nil
	}
	return e.GetContentByPath(ctx, TemplateFilePath(site, tmpl))
}

// GetContentByPath returns the content stored at path, or "" if there is
// no file.
func (e *Engine) GetContentByPath(ctx context.Context, path string) (string, error) {
	content, _, err := e.content.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return content, nil
}

// TemplateLogs returns a template's content history, newest first.
func (e *Engine) TemplateLogs(ctx context.Context, templateID int64) ([]*models.TemplateLog, error) {
	return e.logs.ListByTemplateID(ctx, templateID)
}
