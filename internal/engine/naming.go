// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sitetemplates/internal/slug"
)

// GenerateUniqueImportName derives the first name after name in its
// counter chain that no template of the site uses: "report" becomes
// "report_1", "report_1" becomes "report_2", and a non-numeric suffix
// counts as zero, so "page_x" becomes "page_1".
func (e *Engine) GenerateUniqueImportName(ctx context.Context, siteID int64, name string) (string, error) {
	candidate := name
	for range e.maxImportNameAttempts {
		candidate = nextImportName(candidate)
		exists, err := e.templates.NameExists(ctx, siteID, candidate)
		if err != nil {
			return "", fmt.Errorf("generate import name: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("generate import name for %q: %w", name, ErrImportNameExhausted)
}

// nextImportName increments the counter after the last underscore.
func nextImportName(name string) string {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name + "_1"
	}
	n, err := strconv.Atoi(name[i+1:])
	if err != nil {
		n = 0
	}
	return name[:i+1] + strconv.Itoa(n+1)
}

// TemplateFileName is the content file name given to imported templates
// that arrive without one.
func TemplateFileName(templateName string) string {
	return slug.FileName(templateName, ".html")
}
