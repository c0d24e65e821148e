// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"fmt"

	"sitetemplates/internal/models"
)

// Source tells where a resolved template came from.
type Source int

const (
	// SourceUnconfigured means nothing matched. The template is a
	// placeholder with ID 0 that exists in no store.
	SourceUnconfigured Source = iota
	// SourceConfigured means an explicitly referenced template was found.
	SourceConfigured
	// SourceDefault means the site default for the type was used.
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceConfigured:
		return "configured"
	case SourceDefault:
		return "default"
	default:
		return "unconfigured"
	}
}

// Resolution is the outcome of a template lookup. Template is never nil.
type Resolution struct {
	Template *models.Template
	Source   Source
}

// Configured reports whether the resolution points at a stored template.
func (r Resolution) Configured() bool {
	return r.Source != SourceUnconfigured
}

// ResolveIndexTemplate returns the site's default index page template.
func (e *Engine) ResolveIndexTemplate(ctx context.Context, siteID int64) (Resolution, error) {
	return e.resolve(ctx, siteID, models.TemplateTypeIndexPage, 0)
}

// ResolveChannelTemplate returns the template of a channel page. The
// site root channel renders with the default index page template; other
// channels use their configured channel template. Missing channels,
// unset ids and deleted templates fall back to the default channel
// template.
func (e *Engine) ResolveChannelTemplate(ctx context.Context, siteID, channelID int64) (Resolution, error) {
	if channelID == siteID {
		def, err := e.defaultTemplate(ctx, siteID, models.TemplateTypeIndexPage)
		if err != nil {
			return Resolution{}, err
		}
		if def != nil {
			e.observeResolution(models.TemplateTypeChannel, SourceDefault)
			return Resolution{Template: def, Source: SourceDefault}, nil
		}
		return e.resolve(ctx, siteID, models.TemplateTypeChannel, 0)
	}

	ch, err := e.dir.Channel(ctx, channelID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve channel template: %w", err)
	}
	var id int64
	if ch != nil {
		id = ch.ChannelTemplateID
	}
	return e.resolve(ctx, siteID, models.TemplateTypeChannel, id)
}

// ResolveContentTemplate returns the template for content pages of a
// channel, falling back to the default content template.
func (e *Engine) ResolveContentTemplate(ctx context.Context, siteID, channelID int64) (Resolution, error) {
	ch, err := e.dir.Channel(ctx, channelID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve content template: %w", err)
	}
	var id int64
	if ch != nil {
		id = ch.ContentTemplateID
	}
	return e.resolve(ctx, siteID, models.TemplateTypeContent, id)
}

// ResolveFileTemplate returns the file template with the given id,
// falling back to the default file template.
func (e *Engine) ResolveFileTemplate(ctx context.Context, siteID, fileTemplateID int64) (Resolution, error) {
	return e.resolve(ctx, siteID, models.TemplateTypeFile, fileTemplateID)
}

// IndexTemplateID returns the id of the default index page template, or 0.
func (e *Engine) IndexTemplateID(ctx context.Context, siteID int64) (int64, error) {
	return e.DefaultTemplateID(ctx, siteID, models.TemplateTypeIndexPage)
}

// ChannelTemplateID returns the id ResolveChannelTemplate would pick,
// or 0 when it would return a placeholder.
func (e *Engine) ChannelTemplateID(ctx context.Context, siteID, channelID int64) (int64, error) {
	res, err := e.ResolveChannelTemplate(ctx, siteID, channelID)
	if err != nil {
		return 0, err
	}
	return res.Template.ID, nil
}

// ContentTemplateID returns the id ResolveContentTemplate would pick,
// or 0 when it would return a placeholder.
func (e *Engine) ContentTemplateID(ctx context.Context, siteID, channelID int64) (int64, error) {
	res, err := e.ResolveContentTemplate(ctx, siteID, channelID)
	if err != nil {
		return 0, err
	}
	return res.Template.ID, nil
}

// resolve tries the explicit id, then the site default, then returns a
// placeholder of tmplType.
func (e *Engine) resolve(ctx context.Context, siteID int64, tmplType models.TemplateType, id int64) (Resolution, error) {
	if id > 0 {
		tmpl, err := e.template(ctx, id)
		if err != nil {
			return Resolution{}, err
		}
		if tmpl != nil {
			e.observeResolution(tmplType, SourceConfigured)
			return Resolution{Template: tmpl, Source: SourceConfigured}, nil
		}
	}

	def, err := e.defaultTemplate(ctx, siteID, tmplType)
	if err != nil {
		return Resolution{}, err
	}
	if def != nil {
		e.observeResolution(tmplType, SourceDefault)
		return Resolution{Template: def, Source: SourceDefault}, nil
	}

	e.observeResolution(tmplType, SourceUnconfigured)
	return Resolution{
		Template: &models.Template{SiteID: siteID, Type: tmplType},
		Source:   SourceUnconfigured,
	}, nil
}

// template loads a record by id through the cache. Returns nil if absent.
func (e *Engine) template(ctx context.Context, id int64) (*models.Template, error) {
	if tmpl, ok := e.cache.Get(ctx, id); ok {
		return tmpl, nil
	}
	tmpl, err := e.templates.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load template %d: %w", id, err)
	}
	if tmpl != nil {
		e.cache.Set(ctx, tmpl)
	}
	return tmpl, nil
}

// defaultTemplate reads the current default from the metadata store; the
// default flag of cached records may lag behind a concurrent promotion.
func (e *Engine) defaultTemplate(ctx context.Context, siteID int64, tmplType models.TemplateType) (*models.Template, error) {
	tmpl, err := e.templates.FindDefault(ctx, siteID, tmplType)
	if err != nil {
		return nil, fmt.Errorf("load default %s: %w", tmplType, err)
	}
	return tmpl, nil
}

func (e *Engine) observeResolution(tmplType models.TemplateType, src Source) {
	if e.metrics != nil {
		e.metrics.ObserveResolution(string(tmplType), src.String())
	}
}
