package models

import (
	"errors"
	"testing"
)

// TestTemplateTypeConstants verifies that template type string constants have
// the values persisted in the templates table.
func TestTemplateTypeConstants(t *testing.T) {
	tests := []struct {
		name     string
		tt       TemplateType
		expected string
	}{
		{name: "index", tt: TemplateTypeIndexPage, expected: "IndexPageTemplate"},
		{name: "channel", tt: TemplateTypeChannel, expected: "ChannelTemplate"},
		{name: "content", tt: TemplateTypeContent, expected: "ContentTemplate"},
		{name: "file", tt: TemplateTypeFile, expected: "FileTemplate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.tt) != tc.expected {
				t.Errorf("TemplateType %s = %q, want %q", tc.name, string(tc.tt), tc.expected)
			}
		})
	}
}

// TestTemplateTypeDistinct ensures all template type constants are unique.
func TestTemplateTypeDistinct(t *testing.T) {
	seen := make(map[TemplateType]bool)
	for _, tt := range TemplateTypes {
		if seen[tt] {
			t.Errorf("duplicate TemplateType value: %q", tt)
		}
		seen[tt] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 template types, got %d", len(seen))
	}
}

func TestParseTemplateType(t *testing.T) {
	for _, tt := range TemplateTypes {
		got, err := ParseTemplateType(string(tt))
		if err != nil {
			t.Fatalf("ParseTemplateType(%q): %v", tt, err)
		}
		if got != tt {
			t.Errorf("ParseTemplateType(%q) = %q", tt, got)
		}
		if !tt.Valid() {
			t.Errorf("%q should be valid", tt)
		}
	}

	for _, bad := range []string{"", "indexpagetemplate", "PageTemplate"} {
		_, err := ParseTemplateType(bad)
		if !errors.Is(err, ErrUnknownTemplateType) {
			t.Errorf("ParseTemplateType(%q): expected ErrUnknownTemplateType, got %v", bad, err)
		}
		if TemplateType(bad).Valid() {
			t.Errorf("%q should not be valid", bad)
		}
	}
}

func TestChannelIsSiteRoot(t *testing.T) {
	root := &Channel{ID: 7, SiteID: 7}
	if !root.IsSiteRoot() {
		t.Error("channel sharing the site id should be the root")
	}
	child := &Channel{ID: 12, SiteID: 7}
	if child.IsSiteRoot() {
		t.Error("channel 12 of site 7 should not be the root")
	}
}
