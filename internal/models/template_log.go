// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateLog is an append-only snapshot of template content, written on
// every content write. The full text is kept so any version can be restored.
type TemplateLog struct {
	ID            uuid.UUID `json:"id"`
	TemplateID    int64     `json:"template_id"`
	SiteID        int64     `json:"site_id"`
	UserID        int64     `json:"user_id"`
	ContentLength int       `json:"content_length"` // characters, not bytes
	Content       string    `json:"content"`
	ContentHash   string    `json:"content_hash"` // BLAKE3, hex
	CreatedAt     time.Time `json:"created_at"`
}
