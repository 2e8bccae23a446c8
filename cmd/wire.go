package cmd

import (
	"fmt"

	"blogfeed/internal/aggregator"
	"blogfeed/internal/cache"
	"blogfeed/internal/config"
	"blogfeed/internal/feed"
	"blogfeed/internal/model"
	"blogfeed/internal/redisclient"
	"blogfeed/internal/storage"
	"blogfeed/internal/store"
)

// app bundles the constructed components one command invocation needs.
// Construction is explicit here: no package-level singletons.
type app struct {
	cfg     config.Config
	kv      storage.KV
	cache   aggregator.PostCache
	sweeper *cache.Cache[[]model.Post]
	store   *store.Store
	service *aggregator.Service
	feeds   []model.FeedDescriptor
}

func buildApp() (*app, error) {
	cfg := GetConfig()

	feeds, err := loadFeeds(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := openKV(cfg)
	if err != nil {
		return nil, err
	}

	cacheOpts := cache.Options{
		MaxEntries:    cfg.Cache.MaxEntries,
		MaxBytes:      cfg.Cache.MaxBytes,
		DefaultTTL:    config.Duration(cfg.Cache.TTL, 0),
		SweepInterval: config.Duration(cfg.Cache.SweepInterval, 0),
	}
	var (
		pc      aggregator.PostCache
		sweeper *cache.Cache[[]model.Post]
	)
	if cfg.Cache.Persistent {
		p := cache.NewPersistent[[]model.Post](cacheOpts, kv, "cache:posts")
		pc, sweeper = p, p.Cache
	} else {
		c := cache.New[[]model.Post](cacheOpts)
		pc, sweeper = c, c
	}

	st := store.New(kv, store.Options{
		ArchiveAfter: config.Duration(cfg.Lifecycle.ArchiveAfter, 0),
		PurgeAfter:   config.Duration(cfg.Lifecycle.PurgeAfter, 0),
	})

	client := feed.NewClient(feed.Config{
		APIBase: cfg.FeedAPI.BaseURL,
		APIKey:  cfg.FeedAPI.APIKey,
		Count:   cfg.FeedAPI.Count,
		Timeout: config.Duration(cfg.FeedAPI.Timeout, 0),
	})
	retryer := feed.NewRetryer(client, cfg.Retry.Attempts, config.Duration(cfg.Retry.BaseDelay, 0))

	svc := aggregator.New(pc, retryer, st, feeds, aggregator.Options{
		CacheTTL: config.Duration(cfg.Cache.TTL, 0),
	})

	return &app{
		cfg:     cfg,
		kv:      kv,
		cache:   pc,
		sweeper: sweeper,
		store:   st,
		service: svc,
		feeds:   feeds,
	}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "closing storage: %v\n", err)
	}
}

func loadFeeds(cfg config.Config) ([]model.FeedDescriptor, error) {
	if feedsFile != "" {
		return config.LoadFeedsFile(feedsFile)
	}
	feeds, err := cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured: add a feeds section to the config or pass --feeds")
	}
	return feeds, nil
}

func openKV(cfg config.Config) (storage.KV, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return storage.NewRedisKV(redisclient.New(cfg.Redis), cfg.Storage.KeyPrefix), nil
	case "sqlite":
		return storage.OpenSQLiteKV(cfg.Storage.SQLitePath)
	case "memory":
		return storage.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (valid: redis, sqlite, memory)", cfg.Storage.Backend)
	}
}
