package config

import (
	"time"

	"blogfeed/internal/model"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig selects and tunes the durable KV backend.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"`     // "redis" or "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"` // used by the sqlite backend
	KeyPrefix  string `mapstructure:"key_prefix"`  // used by the redis backend
}

// FeedAPIConfig controls the remote feed-to-JSON API. An empty BaseURL
// switches the fetcher to direct RSS parsing.
type FeedAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Count   int    `mapstructure:"count"`
	Timeout string `mapstructure:"timeout"` // duration string, e.g., "5s"
}

// RetryConfig bounds per-feed retry behavior.
type RetryConfig struct {
	Attempts  int    `mapstructure:"attempts"`
	BaseDelay string `mapstructure:"base_delay"` // duration string, e.g., "2s"
}

// CacheConfig bounds the cache engine.
type CacheConfig struct {
	TTL           string `mapstructure:"ttl"`
	MaxEntries    int    `mapstructure:"max_entries"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
	SweepInterval string `mapstructure:"sweep_interval"`
	Persistent    bool   `mapstructure:"persistent"`
}

// LifecycleConfig sets the age thresholds for archive and purge.
type LifecycleConfig struct {
	ArchiveAfter    string `mapstructure:"archive_after"`
	PurgeAfter      string `mapstructure:"purge_after"`
	CleanupInterval string `mapstructure:"cleanup_interval"` // serve-mode cleanup cadence
}

// FeedConfig is one configured feed as written in YAML.
type FeedConfig struct {
	URL         string `mapstructure:"url" yaml:"url"`
	DisplayName string `mapstructure:"display_name" yaml:"display_name"`
	Category    string `mapstructure:"category" yaml:"category"`
	Priority    int    `mapstructure:"priority" yaml:"priority"`
}

// Config is the top-level configuration structure.
type Config struct {
	App             AppConfig       `mapstructure:"app"`
	Redis           RedisConfig     `mapstructure:"redis"`
	Storage         StorageConfig   `mapstructure:"storage"`
	FeedAPI         FeedAPIConfig   `mapstructure:"feed_api"`
	Retry           RetryConfig     `mapstructure:"retry"`
	Cache           CacheConfig     `mapstructure:"cache"`
	Lifecycle       LifecycleConfig `mapstructure:"lifecycle"`
	Feeds           []FeedConfig    `mapstructure:"feeds"`
	RefreshInterval string          `mapstructure:"refresh_interval"` // serve-mode aggregation cadence
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "redis"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/blogfeed.db"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "blogfeed"
	}
	if c.FeedAPI.Count == 0 {
		c.FeedAPI.Count = 20
	}
	if c.FeedAPI.Timeout == "" {
		c.FeedAPI.Timeout = "5s"
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.BaseDelay == "" {
		c.Retry.BaseDelay = "2s"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "10m"
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 100
	}
	if c.Cache.MaxBytes == 0 {
		c.Cache.MaxBytes = 10 << 20 // 10 MB
	}
	if c.Cache.SweepInterval == "" {
		c.Cache.SweepInterval = "5m"
	}
	if c.Lifecycle.ArchiveAfter == "" {
		c.Lifecycle.ArchiveAfter = "504h" // 21 days
	}
	if c.Lifecycle.PurgeAfter == "" {
		c.Lifecycle.PurgeAfter = "3600h" // 150 days
	}
	if c.Lifecycle.CleanupInterval == "" {
		c.Lifecycle.CleanupInterval = "24h"
	}
	if c.RefreshInterval == "" {
		c.RefreshInterval = "30m"
	}
}

// Duration parses s, falling back to def on empty or malformed input.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Descriptors converts the configured feeds into immutable feed descriptors.
func (c *Config) Descriptors() ([]model.FeedDescriptor, error) {
	return descriptors(c.Feeds)
}
