// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Site is the part of a site record the template layer needs: where its
// files live on disk.
type Site struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	SiteDir string `json:"site_dir"`
	// RootDir is SiteDir resolved against the configured web root.
	RootDir string `json:"root_dir"`
}

// Channel is a node of a site's channel tree. A zero template id means the
// channel inherits the site default for that type.
type Channel struct {
	ID                int64  `json:"id"`
	SiteID            int64  `json:"site_id"`
	Name              string `json:"name"`
	ChannelTemplateID int64  `json:"channel_template_id"`
	ContentTemplateID int64  `json:"content_template_id"`
}

// IsSiteRoot reports whether the channel is the root channel of its site.
// The root channel shares its id with the site.
func (c *Channel) IsSiteRoot() bool {
	return c.ID == c.SiteID
}
