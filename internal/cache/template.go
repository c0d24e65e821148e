// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// template.go provides the Valkey-backed L2 cache of template records,
// shared by every process serving the same sites.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"sitetemplates/internal/models"
)

const (
	// templateKeyPrefix is the Valkey key prefix for cached template records.
	templateKeyPrefix = "template:"

	// DefaultTemplateTTL is how long a template record stays cached.
	DefaultTemplateTTL = 10 * time.Minute
)

// Valkey caches template records in Valkey as JSON.
type Valkey struct {
	client *redis.Client
	ttl    time.Duration
}

// NewValkey creates a new template cache backed by the given Valkey client.
func NewValkey(client *redis.Client, ttl time.Duration) *Valkey {
	if ttl == 0 {
		ttl = DefaultTemplateTTL
	}
	return &Valkey{client: client, ttl: ttl}
}

// TemplateKey returns the cache key of a template id.
func TemplateKey(id int64) string {
	return templateKeyPrefix + strconv.FormatInt(id, 10)
}

// Get retrieves a cached record. Errors count as a miss.
func (v *Valkey) Get(ctx context.Context, id int64) (*models.Template, bool) {
	val, err := v.client.Get(ctx, TemplateKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("template cache get error", "id", id, "error", err)
		return nil, false
	}

	var t models.Template
	if err := json.Unmarshal(val, &t); err != nil {
		slog.Warn("template cache decode error", "id", id, "error", err)
		return nil, false
	}
	slog.Debug("template cache hit", "id", id)
	return &t, true
}

// Set stores a record with the configured TTL.
func (v *Valkey) Set(ctx context.Context, t *models.Template) {
	data, err := json.Marshal(t)
	if err != nil {
		slog.Warn("template cache encode error", "id", t.ID, "error", err)
		return
	}
	if err := v.client.Set(ctx, TemplateKey(t.ID), data, v.ttl).Err(); err != nil {
		slog.Warn("template cache set error", "id", t.ID, "error", err)
	}
}

// Invalidate removes the given ids.
func (v *Valkey) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = TemplateKey(id)
	}
	if err := v.client.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("template cache invalidate error", "ids", ids, "error", err)
		return
	}
	slog.Debug("template cache invalidated", "ids", ids)
}

// InvalidateAll removes all cached records by scanning for the prefix.
func (v *Valkey) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := v.client.Scan(ctx, cursor, templateKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("template cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := v.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("template cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("template cache fully cleared", "deleted", deleted)
	}
}
