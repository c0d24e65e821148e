// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"sitetemplates/internal/models"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client, err := ConnectValkey(envOr("VALKEY_HOST", "localhost"), envOr("VALKEY_PORT", "6379"),
		os.Getenv("VALKEY_PASSWORD"), 15) // DB 15 for tests.
	if err != nil {
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	ctx := context.Background()
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, templateKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestTemplateKey(t *testing.T) {
	if got := TemplateKey(42); got != "template:42" {
		t.Errorf("TemplateKey(42) = %q", got)
	}
}

func TestValkeySetGetInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	v := NewValkey(client, time.Minute)
	ctx := context.Background()

	if _, ok := v.Get(ctx, 1001); ok {
		t.Fatal("expected miss")
	}

	want := &models.Template{
		ID: 1001, SiteID: 1, TemplateName: "News", Type: models.TemplateTypeChannel,
		RelatedFileName: "T_News.html", IsDefault: true,
	}
	v.Set(ctx, want)

	got, ok := v.Get(ctx, 1001)
	if !ok {
		t.Fatal("expected hit")
	}
	if *got != *want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	v.Invalidate(ctx, 1001)
	if _, ok := v.Get(ctx, 1001); ok {
		t.Error("expected miss after invalidation")
	}
}

func TestValkeyInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	v := NewValkey(client, time.Minute)
	ctx := context.Background()

	for _, id := range []int64{2001, 2002, 2003} {
		v.Set(ctx, &models.Template{ID: id})
	}
	v.InvalidateAll(ctx)

	for _, id := range []int64{2001, 2002, 2003} {
		if _, ok := v.Get(ctx, id); ok {
			t.Errorf("expected miss for %d after InvalidateAll", id)
		}
	}
}

func TestNewValkeyDefaultTTL(t *testing.T) {
	v := NewValkey(nil, 0)
	if v.ttl != DefaultTemplateTTL {
		t.Errorf("expected DefaultTemplateTTL (%v), got %v", DefaultTemplateTTL, v.ttl)
	}
}

func TestTieredFanOut(t *testing.T) {
	client := testValkeyClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l2 := NewValkey(client, time.Minute)
	writer := NewTiered(NewLocal(0), l2, client)
	readerL1 := NewLocal(0)
	reader := NewTiered(readerL1, l2, client)

	done := make(chan error, 1)
	go func() { done <- reader.Listen(ctx) }()

	tmpl := &models.Template{ID: 3001, TemplateName: "x"}
	writer.Set(ctx, tmpl)
	if _, ok := reader.Get(ctx, 3001); !ok {
		t.Fatal("reader should see the record through L2")
	}
	if readerL1.Len() != 1 {
		t.Fatalf("L2 hit not copied into reader L1")
	}

	// Give the subscription time to register before publishing.
	time.Sleep(100 * time.Millisecond)
	writer.Invalidate(ctx, 3001)

	deadline := time.Now().Add(2 * time.Second)
	for readerL1.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if readerL1.Len() != 0 {
		t.Error("reader L1 not invalidated by published message")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Listen: %v", err)
	}
}
