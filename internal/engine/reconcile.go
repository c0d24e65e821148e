// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"fmt"
	"log/slog"

	"sitetemplates/internal/models"
)

// IssueKind classifies a reconcile finding.
type IssueKind string

const (
	// IssueMissingFile: the metadata row exists but its content file does not.
	IssueMissingFile IssueKind = "missing_file"
	// IssueContentDrift: the file differs from the newest history entry.
	IssueContentDrift IssueKind = "content_drift"
	// IssueMissingDefault: the site has templates of a type but none is default.
	IssueMissingDefault IssueKind = "missing_default"
)

// Issue is one inconsistency found by Reconcile.
type Issue struct {
	Kind       IssueKind
	TemplateID int64 // 0 for IssueMissingDefault
	Type       models.TemplateType
	Path       string
	Repaired   bool
}

// ReconcileReport summarizes a reconcile pass over one site.
type ReconcileReport struct {
	SiteID  int64
	Checked int
	Issues  []Issue
}

// Reconcile compares every template of a site with its content file and
// history. With repair set, missing files are rewritten from the newest
// history entry. Drifted files and missing defaults are only reported;
// no template is promoted to default automatically.
func (e *Engine) Reconcile(ctx context.Context, siteID int64, repair bool) (*ReconcileReport, error) {
	site, err := e.site(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("reconcile site %d: %w", siteID, err)
	}

	templates, err := e.templates.List(ctx, models.TemplateFilter{SiteID: siteID})
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{SiteID: siteID}
	hasDefault := make(map[models.TemplateType]bool)

	for i := range templates {
		tmpl := &templates[i]
		if _, seen := hasDefault[tmpl.Type]; !seen {
			hasDefault[tmpl.Type] = false
		}
		if tmpl.IsDefault {
			hasDefault[tmpl.Type] = true
		}

		issue, err := e.reconcileTemplate(ctx, site, tmpl, repair)
		if err != nil {
			return nil, err
		}
		report.Checked++
		if issue != nil {
			report.Issues = append(report.Issues, *issue)
		}
	}

	for _, tt := range models.TemplateTypes {
		if has, ok := hasDefault[tt]; ok && !has {
			report.Issues = append(report.Issues, Issue{Kind: IssueMissingDefault, Type: tt})
		}
	}

	slog.Info("site templates reconciled",
		"site_id", siteID,
		"checked", report.Checked,
		"issues", len(report.Issues),
		"repair", repair,
	)
	return report, nil
}

func (e *Engine) reconcileTemplate(ctx context.Context, site *models.Site, tmpl *models.Template, repair bool) (*Issue, error) {
	path := TemplateFilePath(site, tmpl)
	content, ok, err := e.content.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	latest, err := e.logs.Latest(ctx, tmpl.ID)
	if err != nil {
		return nil, err
	}

	issue := &Issue{TemplateID: tmpl.ID, Type: tmpl.Type, Path: path}
	switch {
	case !ok:
		issue.Kind = IssueMissingFile
		if repair && latest != nil {
			staged, err := e.content.Stage(ctx, path, latest.Content)
			if err != nil {
				return nil, fmt.Errorf("restore template %d: %w", tmpl.ID, err)
			}
			if err := staged.Commit(ctx); err != nil {
				return nil, fmt.Errorf("restore template %d: %w", tmpl.ID, err)
			}
			issue.Repaired = true
			slog.Warn("template file restored from history", "id", tmpl.ID, "path", path, "log_id", latest.ID)
		}
	case latest != nil && ContentHash(content) != latest.ContentHash:
		issue.Kind = IssueContentDrift
	default:
		return nil, nil
	}
	return issue, nil
}
