package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"blogfeed/internal/cache"
	"blogfeed/internal/model"
	"blogfeed/internal/relevance"
	"blogfeed/internal/store"
)

// ErrAggregateFailure means every feed failed and neither the cache nor the
// durable store had anything to fall back to. Callers can distinguish a
// total outage from genuinely empty content.
var ErrAggregateFailure = errors.New("aggregator: all feeds failed and no fallback data available")

// cacheKey is the fixed key the latest aggregation cycle is cached under.
const cacheKey = "posts:latest"

// PostCache is the slice of the cache engine the service needs. Both the
// plain and the persistent cache satisfy it.
type PostCache interface {
	Get(key string) ([]model.Post, bool)
	Set(key string, posts []model.Post, opts cache.SetOptions)
	InvalidateByTags(tags ...string) int
	Clear()
	Stats() cache.Stats
}

// Fetcher fetches one feed; the retry orchestrator satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, desc model.FeedDescriptor) ([]model.Post, error)
}

// Options tune the service.
type Options struct {
	CacheTTL time.Duration
}

// Service is the composition root: fetch all feeds, filter, rank, cache,
// persist, return active posts.
type Service struct {
	cache      PostCache
	fetcher    Fetcher
	store      *store.Store
	feeds      []model.FeedDescriptor
	priorities map[string]int
	cacheTTL   time.Duration

	// mu serializes pipeline runs so concurrent callers cannot race the
	// store's replace-collection write or duplicate the network pass.
	mu sync.Mutex
}

func New(c PostCache, f Fetcher, st *store.Store, feeds []model.FeedDescriptor, opts Options) *Service {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	priorities := make(map[string]int, len(feeds))
	for _, fd := range feeds {
		priorities[fd.DisplayName] = fd.Priority
	}
	return &Service{
		cache:      c,
		fetcher:    f,
		store:      st,
		feeds:      feeds,
		priorities: priorities,
		cacheTTL:   opts.CacheTTL,
	}
}

// FetchLatestPosts returns the current active posts, serving from cache when
// fresh and otherwise running the full pipeline. On total failure it falls
// back to the durable store; only an empty store too yields an error.
func (s *Service) FetchLatestPosts(ctx context.Context) ([]model.Post, error) {
	if posts, ok := s.cache.Get(cacheKey); ok {
		return activeOnly(posts), nil
	}
	return s.Refresh(ctx)
}

// Refresh runs the pipeline unconditionally, bypassing the cache check.
func (s *Service) Refresh(ctx context.Context) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collected, succeeded := s.fetchAll(ctx)
	if succeeded == 0 {
		stored, err := s.store.ActivePosts(ctx)
		if err == nil && len(stored) > 0 {
			slog.Warn("aggregator: all feeds failed, serving stored posts", "count", len(stored))
			return stored, nil
		}
		return nil, ErrAggregateFailure
	}

	ranked := relevance.Rank(relevance.Filter(collected), s.priorities)

	active := ranked
	if err := s.store.ReplaceActive(ctx, ranked); err != nil {
		// Persistence is best-effort here; the fresh result still serves.
		slog.Error("aggregator: persisting fetched posts failed", "error", err)
		active = activeOnly(ranked)
	} else {
		stored, err := s.store.ActivePosts(ctx)
		if err != nil {
			active = activeOnly(ranked)
		} else {
			active = stored
		}
	}

	s.cache.Set(cacheKey, active, cache.SetOptions{
		TTL:  s.cacheTTL,
		Tags: []string{"posts", "feeds"},
	})
	return active, nil
}

// fetchAll runs every configured feed independently and in parallel. One
// feed's exhausted retries never abort the others: failures are logged and
// contribute nothing.
func (s *Service) fetchAll(ctx context.Context) ([]model.Post, int) {
	var (
		mu        sync.Mutex
		collected []model.Post
		succeeded int
		wg        sync.WaitGroup
	)
	for _, fd := range s.feeds {
		wg.Add(1)
		go func(fd model.FeedDescriptor) {
			defer wg.Done()
			posts, err := s.fetcher.Fetch(ctx, fd)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("aggregator: feed failed", "feed", fd.DisplayName, "error", err)
				return
			}
			collected = append(collected, posts...)
			succeeded++
		}(fd)
	}
	wg.Wait()
	return collected, succeeded
}

// PostsByCategory returns the active posts of one category.
func (s *Service) PostsByCategory(ctx context.Context, cat model.Category) ([]model.Post, error) {
	if !cat.Valid() {
		return nil, fmt.Errorf("aggregator: unknown category %q", cat)
	}
	posts, err := s.FetchLatestPosts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out, nil
}

// TrendingPosts returns up to limit high-quality posts by trending score.
func (s *Service) TrendingPosts(ctx context.Context, limit int) ([]model.Post, error) {
	posts, err := s.FetchLatestPosts(ctx)
	if err != nil {
		return nil, err
	}
	return relevance.Trending(relevance.FilterHighQuality(posts), s.priorities, limit, time.Now()), nil
}

// CachedPosts serves from the cache only, with no network path at all.
func (s *Service) CachedPosts() ([]model.Post, bool) {
	posts, ok := s.cache.Get(cacheKey)
	if !ok {
		return nil, false
	}
	return activeOnly(posts), true
}

// ClearCache drops every cached entry.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// InvalidatePosts drops post-tagged cache entries, forcing the next call to
// refetch.
func (s *Service) InvalidatePosts() int {
	return s.cache.InvalidateByTags("posts")
}

// CacheStats exposes the cache engine's counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

func activeOnly(posts []model.Post) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if !p.IsArchived {
			out = append(out, p)
		}
	}
	return out
}
