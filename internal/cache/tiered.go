// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"sitetemplates/internal/models"
)

// InvalidationChannel is the pub/sub channel carrying invalidated ids.
const InvalidationChannel = "template-invalidations"

// Tiered reads through the local L1 into the shared Valkey L2. Its
// invalidations clear both tiers and are published so other processes
// drop their L1 copies too.
type Tiered struct {
	l1     *Local
	l2     *Valkey
	client *redis.Client
}

// NewTiered combines an L1 and an L2 cache. client is used for pub/sub.
func NewTiered(l1 *Local, l2 *Valkey, client *redis.Client) *Tiered {
	return &Tiered{l1: l1, l2: l2, client: client}
}

// Get checks L1, then L2. An L2 hit is copied into L1.
func (c *Tiered) Get(ctx context.Context, id int64) (*models.Template, bool) {
	if t, ok := c.l1.Get(ctx, id); ok {
		return t, true
	}
	t, ok := c.l2.Get(ctx, id)
	if !ok {
		return nil, false
	}
	c.l1.Set(ctx, t)
	return t, true
}

// Set stores t in both tiers.
func (c *Tiered) Set(ctx context.Context, t *models.Template) {
	c.l1.Set(ctx, t)
	c.l2.Set(ctx, t)
}

// Invalidate clears ids from both tiers and publishes them.
func (c *Tiered) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	c.l1.Invalidate(ctx, ids...)
	c.l2.Invalidate(ctx, ids...)

	payload, err := json.Marshal(ids)
	if err != nil {
		slog.Warn("encode template invalidation", "error", err)
		return
	}
	if err := c.client.Publish(ctx, InvalidationChannel, payload).Err(); err != nil {
		slog.Warn("publish template invalidation", "ids", ids, "error", err)
	}
}

// Listen drops L1 entries named by invalidations published by any
// process, until ctx is cancelled.
func (c *Tiered) Listen(ctx context.Context) error {
	sub := c.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	slog.Info("listening for template invalidations", "channel", InvalidationChannel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ids []int64
			if err := json.Unmarshal([]byte(msg.Payload), &ids); err != nil {
				slog.Warn("decode template invalidation", "payload", msg.Payload, "error", err)
				continue
			}
			c.l1.Invalidate(ctx, ids...)
		}
	}
}
