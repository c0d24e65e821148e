// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// local.go provides the in-process L1 cache of template records, keyed
// by template id.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"sitetemplates/internal/models"
)

type localEntry struct {
	tmpl      models.Template
	expiresAt time.Time // zero means no expiry
}

// Local is a concurrency-safe in-memory cache of template records.
type Local struct {
	mu      sync.RWMutex
	entries map[int64]localEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewLocal creates an empty L1 cache. A zero ttl keeps entries until
// they are invalidated.
func NewLocal(ttl time.Duration) *Local {
	return &Local{
		entries: make(map[int64]localEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached record.
func (c *Local) Get(_ context.Context, id int64) (*models.Template, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return nil, false
	}
	t := e.tmpl
	return &t, true
}

// Set stores a copy of t.
func (c *Local) Set(_ context.Context, t *models.Template) {
	e := localEntry{tmpl: *t}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[t.ID] = e
	c.mu.Unlock()
}

// Invalidate removes the given ids.
func (c *Local) Invalidate(_ context.Context, ids ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
	slog.Debug("template cache invalidated", "ids", ids)
}

// InvalidateAll clears the entire cache.
func (c *Local) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int64]localEntry)
	slog.Debug("template cache fully cleared")
}

// Len returns the number of cached entries, expired ones included.
func (c *Local) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
