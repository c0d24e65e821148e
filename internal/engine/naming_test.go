// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"errors"
	"testing"

	"sitetemplates/internal/models"
)

func TestNextImportName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "report_1"},
		{"report_1", "report_2"},
		{"report_9", "report_10"},
		{"page_x", "page_1"},
		{"a_b_3", "a_b_4"},
		{"trailing_", "trailing_1"},
		{"_5", "_6"},
		{"", "_1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := nextImportName(tt.in); got != tt.want {
				t.Errorf("nextImportName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateUniqueImportName(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	insert(t, h, 1, models.TemplateTypeFile, "report", false, "")

	got, err := h.eng.GenerateUniqueImportName(ctx, 1, "report")
	if err != nil {
		t.Fatalf("GenerateUniqueImportName: %v", err)
	}
	if got != "report_1" {
		t.Errorf("got %q, want report_1", got)
	}

	insert(t, h, 1, models.TemplateTypeFile, "report_1", false, "")
	got, _ = h.eng.GenerateUniqueImportName(ctx, 1, "report_1")
	if got != "report_2" {
		t.Errorf("got %q, want report_2", got)
	}

	// The chain is walked until a free name appears.
	insert(t, h, 1, models.TemplateTypeChannel, "report_2", false, "")
	insert(t, h, 1, models.TemplateTypeContent, "report_3", false, "")
	got, _ = h.eng.GenerateUniqueImportName(ctx, 1, "report")
	if got != "report_4" {
		t.Errorf("got %q, want report_4", got)
	}

	got, _ = h.eng.GenerateUniqueImportName(ctx, 1, "page_x")
	if got != "page_1" {
		t.Errorf("got %q, want page_1", got)
	}

	// Names are per site.
	got, _ = h.eng.GenerateUniqueImportName(ctx, 2, "report")
	if got != "report_1" {
		t.Errorf("site 2: got %q, want report_1", got)
	}
}

func TestGenerateUniqueImportNameExhausted(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.eng.SetMaxImportNameAttempts(3)

	for _, name := range []string{"x_1", "x_2", "x_3"} {
		insert(t, h, 1, models.TemplateTypeFile, name, false, "")
	}

	_, err := h.eng.GenerateUniqueImportName(ctx, 1, "x")
	if !errors.Is(err, ErrImportNameExhausted) {
		t.Fatalf("expected ErrImportNameExhausted, got %v", err)
	}

	h.eng.SetMaxImportNameAttempts(0)
	got, err := h.eng.GenerateUniqueImportName(ctx, 1, "x")
	if err != nil || got != "x_4" {
		t.Errorf("got %q, %v; want x_4", got, err)
	}
}

func TestImportTemplate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	insert(t, h, 1, models.TemplateTypeFile, "Feed", false, "")

	tmpl := &models.Template{SiteID: 1, TemplateName: "Feed", Type: models.TemplateTypeFile}
	id, err := h.eng.ImportTemplate(ctx, tmpl, "<rss/>", 2)
	if err != nil {
		t.Fatalf("ImportTemplate: %v", err)
	}

	got, _ := h.eng.GetTemplate(ctx, id)
	if got.TemplateName != "Feed_1" {
		t.Errorf("name = %q, want Feed_1", got.TemplateName)
	}
	if got.RelatedFileName != "T_feed_1.html" {
		t.Errorf("file = %q, want T_feed_1.html", got.RelatedFileName)
	}
	if got.CreatedFileExtName != ".html" {
		t.Errorf("ext = %q", got.CreatedFileExtName)
	}
	if content, _ := h.eng.GetContent(ctx, id); content != "<rss/>" {
		t.Errorf("content = %q", content)
	}

	// A free name is kept as is.
	fresh := &models.Template{SiteID: 1, TemplateName: "Sitemap", Type: models.TemplateTypeFile, RelatedFileName: "sm.xml"}
	id, err = h.eng.ImportTemplate(ctx, fresh, "", 2)
	if err != nil {
		t.Fatalf("ImportTemplate: %v", err)
	}
	got, _ = h.eng.GetTemplate(ctx, id)
	if got.TemplateName != "Sitemap" || got.RelatedFileName != "sm.xml" {
		t.Errorf("got %+v", got)
	}
}
