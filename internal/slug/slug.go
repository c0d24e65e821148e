// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives file-system-friendly names from arbitrary
// template names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonFileSafe matches anything but letters, digits, whitespace,
	// hyphens and underscores. Underscores carry import counters.
	nonFileSafe = regexp.MustCompile(`[^a-z0-9\s_-]`)
	// whitespace matches runs of spaces, tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// FileName builds the content file name of a template: the "T_" prefix,
// the slugged name with underscores kept, then ext.
// Example: FileName("News List_2", ".html") → "T_news-list_2.html"
func FileName(name, ext string) string {
	base := strings.ToLower(strings.TrimSpace(name))
	base = nonFileSafe.ReplaceAllString(base, "")
	base = whitespace.ReplaceAllString(base, "-")
	base = multipleHyphens.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-_")
	if base == "" {
		base = "template"
	}
	return "T_" + base + ext
}
