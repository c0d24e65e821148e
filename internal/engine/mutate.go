// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"sitetemplates/internal/models"
	"sitetemplates/internal/store"
)

// Insert creates a template and its content file and returns the new id.
// The content is staged before the metadata row is written and only
// committed once the row exists, so a failed insert leaves no new file.
func (e *Engine) Insert(ctx context.Context, tmpl *models.Template, content string, userID int64) (id int64, err error) {
	defer func() { e.observeMutation("insert", err) }()

	if !tmpl.Type.Valid() {
		return 0, fmt.Errorf("insert template: %w: %q", models.ErrUnknownTemplateType, tmpl.Type)
	}
	if err := checkFileName(tmpl.RelatedFileName); err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}

	site, err := e.site(ctx, tmpl.SiteID)
	if err != nil {
		return 0, fmt.Errorf("insert template: %w", err)
	}

	staged, err := e.content.Stage(ctx, TemplateFilePath(site, tmpl), content)
	if err != nil {
		return 0, fmt.Errorf("insert template stage content: %w", err)
	}

	id, err = e.templates.Insert(ctx, tmpl)
	if err != nil {
		staged.Abort()
		return 0, err
	}
	tmpl.ID = id

	if err := staged.Commit(ctx); err != nil {
		return id, fmt.Errorf("insert template commit content: %w", err)
	}
	if err := e.appendLog(ctx, tmpl, content, userID); err != nil {
		return id, err
	}

	ids := []int64{id}
	if tmpl.IsDefault {
		// The previous default lost its flag.
		siblings, err := e.templates.IDs(ctx, tmpl.SiteID, tmpl.Type)
		if err != nil {
			return id, err
		}
		ids = append(ids, siblings...)
	}
	e.invalidate(ctx, "insert", ids...)

	slog.Info("template inserted", "id", id, "site_id", tmpl.SiteID, "type", tmpl.Type, "name", tmpl.TemplateName)
	return id, nil
}

// Update overwrites a template's metadata and content. Every template of
// the same site and type is invalidated, since a default flag change
// affects siblings.
func (e *Engine) Update(ctx context.Context, tmpl *models.Template, content string, userID int64) (err error) {
	defer func() { e.observeMutation("update", err) }()

	if !tmpl.Type.Valid() {
		return fmt.Errorf("update template: %w: %q", models.ErrUnknownTemplateType, tmpl.Type)
	}
	if err := checkFileName(tmpl.RelatedFileName); err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	site, err := e.site(ctx, tmpl.SiteID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	staged, err := e.content.Stage(ctx, TemplateFilePath(site, tmpl), content)
	if err != nil {
		return fmt.Errorf("update template stage content: %w", err)
	}

	if err := e.templates.Update(ctx, tmpl); err != nil {
		staged.Abort()
		return err
	}

	if err := staged.Commit(ctx); err != nil {
		return fmt.Errorf("update template commit content: %w", err)
	}
	if err := e.appendLog(ctx, tmpl, content, userID); err != nil {
		return err
	}

	if err := e.invalidateSiblings(ctx, "update", tmpl.SiteID, tmpl.Type, tmpl.ID); err != nil {
		return err
	}

	slog.Info("template updated", "id", tmpl.ID, "site_id", tmpl.SiteID, "type", tmpl.Type)
	return nil
}

// SetDefault makes templateID the only default of its type in the site.
func (e *Engine) SetDefault(ctx context.Context, siteID, templateID int64) (err error) {
	defer func() { e.observeMutation("set_default", err) }()

	if err := e.templates.SetDefault(ctx, siteID, templateID); err != nil {
		return err
	}

	tmpl, err := e.templates.FindByID(ctx, templateID)
	if err != nil {
		return err
	}
	if tmpl == nil {
		// Deleted right after promotion.
		e.invalidate(ctx, "default", templateID)
		return nil
	}

	if err := e.invalidateSiblings(ctx, "default", siteID, tmpl.Type, templateID); err != nil {
		return err
	}

	slog.Info("default template set", "id", templateID, "site_id", siteID, "type", tmpl.Type)
	return nil
}

// Delete removes a template and its content file. Deleting a template
// that no longer exists only drops its cache entry.
func (e *Engine) Delete(ctx context.Context, siteID, templateID int64) (err error) {
	defer func() { e.observeMutation("delete", err) }()

	tmpl, err := e.templates.FindByID(ctx, templateID)
	if err != nil {
		return err
	}
	if tmpl == nil {
		e.invalidate(ctx, "delete", templateID)
		return nil
	}
	if tmpl.SiteID != siteID {
		return fmt.Errorf("delete template %d in site %d: %w", templateID, siteID, store.ErrNotFound)
	}

	site, err := e.site(ctx, siteID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	if err := e.templates.Delete(ctx, templateID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := e.content.Delete(ctx, TemplateFilePath(site, tmpl)); err != nil {
		return err
	}

	e.invalidate(ctx, "delete", templateID)

	slog.Info("template deleted", "id", templateID, "site_id", siteID, "type", tmpl.Type)
	return nil
}

// WriteContent replaces a template's content without touching its
// metadata and records the write in its history.
func (e *Engine) WriteContent(ctx context.Context, site *models.Site, tmpl *models.Template, content string, userID int64) (err error) {
	defer func() { e.observeMutation("write_content", err) }()

	if err := checkFileName(tmpl.RelatedFileName); err != nil {
		return fmt.Errorf("write template content: %w", err)
	}
	staged, err := e.content.Stage(ctx, TemplateFilePath(site, tmpl), content)
	if err != nil {
		return fmt.Errorf("write template content: %w", err)
	}
	if err := staged.Commit(ctx); err != nil {
		return fmt.Errorf("write template content: %w", err)
	}
	if tmpl.ID > 0 {
		return e.appendLog(ctx, tmpl, content, userID)
	}
	return nil
}

// CreateDefaultTemplates seeds a new site with default index, channel
// and content templates.
func (e *Engine) CreateDefaultTemplates(ctx context.Context, siteID, userID int64) error {
	defaults := []models.Template{
		{
			TemplateName:        "Index",
			Type:                models.TemplateTypeIndexPage,
			RelatedFileName:     "T_Index.html",
			CreatedFileFullName: "@/index.html",
		},
		{
			TemplateName:        "Channel",
			Type:                models.TemplateTypeChannel,
			RelatedFileName:     "T_Channel.html",
			CreatedFileFullName: "index.html",
		},
		{
			TemplateName:        "Content",
			Type:                models.TemplateTypeContent,
			RelatedFileName:     "T_Content.html",
			CreatedFileFullName: "index.html",
		},
	}

	for i := range defaults {
		tmpl := &defaults[i]
		tmpl.SiteID = siteID
		tmpl.CreatedFileExtName = ".html"
		tmpl.IsDefault = true
		if _, err := e.Insert(ctx, tmpl, "", userID); err != nil {
			return fmt.Errorf("create default %s: %w", tmpl.Type, err)
		}
	}
	return nil
}

// ImportTemplate inserts a template coming from an external package.
// A name already used in the site is replaced by the next free import
// name, and an empty file name is derived from the template name.
func (e *Engine) ImportTemplate(ctx context.Context, tmpl *models.Template, content string, userID int64) (int64, error) {
	exists, err := e.templates.NameExists(ctx, tmpl.SiteID, tmpl.TemplateName)
	if err != nil {
		return 0, err
	}
	if exists {
		name, err := e.GenerateUniqueImportName(ctx, tmpl.SiteID, tmpl.TemplateName)
		if err != nil {
			return 0, err
		}
		slog.Info("import template renamed", "site_id", tmpl.SiteID, "from", tmpl.TemplateName, "to", name)
		tmpl.TemplateName = name
	}
	if tmpl.RelatedFileName == "" {
		tmpl.RelatedFileName = TemplateFileName(tmpl.TemplateName)
	}
	if tmpl.CreatedFileExtName == "" {
		tmpl.CreatedFileExtName = ".html"
	}
	return e.Insert(ctx, tmpl, content, userID)
}

func (e *Engine) appendLog(ctx context.Context, tmpl *models.Template, content string, userID int64) error {
	err := e.logs.Append(ctx, &models.TemplateLog{
		TemplateID:    tmpl.ID,
		SiteID:        tmpl.SiteID,
		UserID:        userID,
		ContentLength: utf8.RuneCountInString(content),
		Content:       content,
		ContentHash:   ContentHash(content),
	})
	if err != nil {
		return fmt.Errorf("append template log: %w", err)
	}
	return nil
}

func (e *Engine) invalidateSiblings(ctx context.Context, action string, siteID int64, tmplType models.TemplateType, id int64) error {
	ids, err := e.templates.IDs(ctx, siteID, tmplType)
	if err != nil {
		return err
	}
	e.invalidate(ctx, action, append(ids, id)...)
	return nil
}
