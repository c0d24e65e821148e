// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles configuration loading from an optional YAML file
// and environment variables. Environment variables take precedence over
// the file, and the file over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable pointing at the YAML file.
const ConfigEnv = "SITETEMPLATES_CONFIG"

// Config holds all configuration values.
type Config struct {
	Env      string `yaml:"env"`       // "development", "production", "testing"
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"

	// Metadata database. Driver is "postgres" or "sqlite".
	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	SQLitePath string `yaml:"sqlite_path"`

	// WebRoot is the directory all site directories are relative to.
	WebRoot string `yaml:"web_root"`

	// Content store. Backend is "file" or "s3".
	ContentBackend string `yaml:"content_backend"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3Region       string `yaml:"s3_region"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Prefix       string `yaml:"s3_prefix"`

	// Template record cache. Backend is "local" or "valkey"; valkey adds
	// the shared L2 and cross-process invalidation.
	CacheBackend   string        `yaml:"cache_backend"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	ValkeyHost     string        `yaml:"valkey_host"`
	ValkeyPort     string        `yaml:"valkey_port"`
	ValkeyPassword string        `yaml:"valkey_password"`
	ValkeyDB       int           `yaml:"valkey_db"`

	// MaxImportNameAttempts bounds the search for a free import name.
	MaxImportNameAttempts int `yaml:"max_import_name_attempts"`
}

// Load reads the file named by SITETEMPLATES_CONFIG, if any, then the
// environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigEnv))
}

// LoadFile reads configuration from path (skipped when empty), applies
// environment overrides and defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Env = envOrDefault("APP_ENV", c.Env)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)

	c.DBDriver = envOrDefault("DB_DRIVER", c.DBDriver)
	c.DBHost = envOrDefault("POSTGRES_HOST", c.DBHost)
	c.DBPort = envOrDefault("POSTGRES_PORT", c.DBPort)
	c.DBUser = envOrDefault("POSTGRES_USER", c.DBUser)
	c.DBPassword = envOrDefault("POSTGRES_PASSWORD", c.DBPassword)
	c.DBName = envOrDefault("POSTGRES_DB", c.DBName)
	c.SQLitePath = envOrDefault("SQLITE_PATH", c.SQLitePath)

	c.WebRoot = envOrDefault("WEB_ROOT", c.WebRoot)

	c.ContentBackend = envOrDefault("CONTENT_BACKEND", c.ContentBackend)
	c.S3Endpoint = envOrDefault("S3_ENDPOINT", c.S3Endpoint)
	c.S3Region = envOrDefault("S3_REGION", c.S3Region)
	c.S3AccessKey = envOrDefault("S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = envOrDefault("S3_SECRET_KEY", c.S3SecretKey)
	c.S3Bucket = envOrDefault("S3_BUCKET", c.S3Bucket)
	c.S3Prefix = envOrDefault("S3_PREFIX", c.S3Prefix)

	c.CacheBackend = envOrDefault("CACHE_BACKEND", c.CacheBackend)
	c.ValkeyHost = envOrDefault("VALKEY_HOST", c.ValkeyHost)
	c.ValkeyPort = envOrDefault("VALKEY_PORT", c.ValkeyPort)
	c.ValkeyPassword = envOrDefault("VALKEY_PASSWORD", c.ValkeyPassword)

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	if v := os.Getenv("VALKEY_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VALKEY_DB: %w", err)
		}
		c.ValkeyDB = n
	}
	if v := os.Getenv("IMPORT_NAME_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMPORT_NAME_MAX_ATTEMPTS: %w", err)
		}
		c.MaxImportNameAttempts = n
	}
	return nil
}

func (c *Config) setDefaults() {
	c.Env = orDefault(c.Env, "development")
	c.LogLevel = orDefault(c.LogLevel, "info")

	c.DBDriver = orDefault(c.DBDriver, "postgres")
	c.DBHost = orDefault(c.DBHost, "localhost")
	c.DBPort = orDefault(c.DBPort, "5432")
	c.DBUser = orDefault(c.DBUser, "sitetemplates")
	c.DBPassword = orDefault(c.DBPassword, "changeme")
	c.DBName = orDefault(c.DBName, "sitetemplates")
	c.SQLitePath = orDefault(c.SQLitePath, "sitetemplates.db")

	c.WebRoot = orDefault(c.WebRoot, "./www")

	c.ContentBackend = orDefault(c.ContentBackend, "file")
	c.S3Region = orDefault(c.S3Region, "us-east-1")

	c.CacheBackend = orDefault(c.CacheBackend, "local")
	c.ValkeyHost = orDefault(c.ValkeyHost, "localhost")
	c.ValkeyPort = orDefault(c.ValkeyPort, "6379")
	if c.CacheTTL == 0 {
		c.CacheTTL = 10 * time.Minute
	}

	if c.MaxImportNameAttempts == 0 {
		c.MaxImportNameAttempts = 1000
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid db_driver: %s (must be postgres or sqlite)", c.DBDriver)
	}

	switch c.ContentBackend {
	case "file":
	case "s3":
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" || c.S3Bucket == "" {
			return errors.New("s3 content backend requires s3_endpoint, s3_access_key, s3_secret_key and s3_bucket")
		}
	default:
		return fmt.Errorf("invalid content_backend: %s (must be file or s3)", c.ContentBackend)
	}

	switch c.CacheBackend {
	case "local", "valkey":
	default:
		return fmt.Errorf("invalid cache_backend: %s (must be local or valkey)", c.CacheBackend)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.MaxImportNameAttempts < 1 {
		return fmt.Errorf("max_import_name_attempts must be positive, got %d", c.MaxImportNameAttempts)
	}

	if c.Env == "production" && c.DBDriver == "postgres" && c.DBPassword == "changeme" {
		return errors.New("POSTGRES_PASSWORD must be set in production")
	}
	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SlogLevel returns the log level as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
