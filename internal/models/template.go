// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"fmt"
)

// ErrUnknownTemplateType is returned when a stored or user-supplied type
// string does not name one of the four template types.
var ErrUnknownTemplateType = errors.New("unknown template type")

// TemplateType categorizes templates by the page they render.
type TemplateType string

const (
	TemplateTypeIndexPage TemplateType = "IndexPageTemplate"
	TemplateTypeChannel   TemplateType = "ChannelTemplate"
	TemplateTypeContent   TemplateType = "ContentTemplate"
	TemplateTypeFile      TemplateType = "FileTemplate"
)

// TemplateTypes lists every template type in display order.
var TemplateTypes = []TemplateType{
	TemplateTypeIndexPage,
	TemplateTypeChannel,
	TemplateTypeContent,
	TemplateTypeFile,
}

// ParseTemplateType converts a stored type string into a TemplateType.
func ParseTemplateType(s string) (TemplateType, error) {
	for _, tt := range TemplateTypes {
		if string(tt) == s {
			return tt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTemplateType, s)
}

// Valid reports whether t is one of the known template types.
func (t TemplateType) Valid() bool {
	_, err := ParseTemplateType(string(t))
	return err == nil
}

// Template is the metadata record of a site template. The template source
// text is not part of the record; it lives in the content store at the
// path derived from the owning site and RelatedFileName.
type Template struct {
	ID                  int64        `json:"id"`
	SiteID              int64        `json:"site_id"`
	TemplateName        string       `json:"template_name"`
	Type                TemplateType `json:"type"`
	RelatedFileName     string       `json:"related_file_name"`
	CreatedFileFullName string       `json:"created_file_full_name"`
	CreatedFileExtName  string       `json:"created_file_ext_name"`
	IsDefault           bool         `json:"is_default"`
}

// TemplateFilter narrows template listings. Zero values are ignored.
type TemplateFilter struct {
	SiteID int64
	Type   TemplateType
}
