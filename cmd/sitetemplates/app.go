package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"sitetemplates/internal/cache"
	"sitetemplates/internal/config"
	"sitetemplates/internal/database"
	"sitetemplates/internal/engine"
	"sitetemplates/internal/metrics"
	"sitetemplates/internal/storage"
	"sitetemplates/internal/store"
)

// app holds the wired components shared by the commands.
type app struct {
	db       *sql.DB
	driver   database.Driver
	sites    *store.SiteStore
	channels *store.ChannelStore
	cacheLog *store.CacheLogStore
	metrics  *metrics.Metrics
	engine   *engine.Engine

	// Set only with the valkey cache backend.
	valkey *redis.Client
	tiered *cache.Tiered
}

// openApp connects to the database, applies pending migrations and builds
// the template engine on top of the configured content store and cache.
func openApp(cfg *config.Config) (*app, error) {
	driver, err := database.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(driver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		db:       db,
		driver:   driver,
		sites:    store.NewSiteStore(db, driver, cfg.WebRoot),
		channels: store.NewChannelStore(db, driver),
		cacheLog: store.NewCacheLogStore(db, driver),
		metrics:  metrics.New(),
	}

	content, err := newContentStore(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	tmplCache, err := a.newCache(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.engine = engine.New(
		store.NewTemplateStore(db, driver),
		store.NewTemplateLogStore(db, driver),
		content,
		store.NewDirectory(a.sites, a.channels),
		tmplCache,
	)
	a.engine.SetObservers(a.cacheLog, a.metrics)
	a.engine.SetMaxImportNameAttempts(cfg.MaxImportNameAttempts)
	return a, nil
}

func newContentStore(cfg *config.Config) (engine.ContentStore, error) {
	if cfg.ContentBackend != "s3" {
		return storage.NewFileStore(), nil
	}

	s, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Prefix:    cfg.S3Prefix,
		WebRoot:   cfg.WebRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 content store: %w", err)
	}
	slog.Info("s3 content store configured", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	return s, nil
}

func (a *app) newCache(cfg *config.Config) (engine.Cache, error) {
	l1 := cache.NewLocal(cfg.CacheTTL)
	if cfg.CacheBackend != "valkey" {
		return l1, nil
	}

	client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return nil, err
	}
	a.valkey = client
	a.tiered = cache.NewTiered(l1, cache.NewValkey(client, cfg.CacheTTL), client)
	return a.tiered, nil
}

// Close releases the database and cache connections.
func (a *app) Close() {
	if a.valkey != nil {
		a.valkey.Close()
	}
	a.db.Close()
}
