package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Entry is a single cached value with its bookkeeping metadata.
type Entry[T any] struct {
	Data         T         `json:"data"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int64     `json:"access_count"`
	SizeBytes    int       `json:"size_bytes"`
	Tags         []string  `json:"tags"`
	// Seq is the insertion order, used to break LRU ties deterministically.
	Seq uint64 `json:"seq"`
}

func (e *Entry[T]) expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

func (e *Entry[T]) hasAnyTag(tags []string) bool {
	for _, t := range tags {
		for _, own := range e.Tags {
			if t == own {
				return true
			}
		}
	}
	return false
}

// Options bound and tune a cache instance.
type Options struct {
	MaxEntries    int           // 0 means unbounded
	MaxBytes      int64         // 0 means unbounded
	DefaultTTL    time.Duration // used when SetOptions.TTL is zero
	SweepInterval time.Duration // background expiry sweep period
}

// SetOptions control a single Set call.
type SetOptions struct {
	TTL      time.Duration
	Tags     []string
	SizeHint int // serialized size in bytes if the caller already knows it
}

// Stats is a point-in-time snapshot of cache effectiveness and occupancy.
type Stats struct {
	Hits           int64     `json:"hits"`
	Misses         int64     `json:"misses"`
	HitRate        float64   `json:"hit_rate"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	EntryCount     int       `json:"entry_count"`
	OldestEntryAt  time.Time `json:"oldest_entry_at"`
	NewestEntryAt  time.Time `json:"newest_entry_at"`
}

// Cache is a tagged TTL cache with LRU eviction under size and count bounds.
// Get and Set never fail; an expired entry behaves exactly like an absent one.
type Cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*Entry[T]
	opts    Options

	hits       int64
	misses     int64
	totalBytes int64
	seq        uint64

	// now is swappable in tests.
	now func() time.Time
}

func New[T any](opts Options) *Cache[T] {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 10 * time.Minute
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 5 * time.Minute
	}
	return &Cache[T]{
		entries: make(map[string]*Entry[T]),
		opts:    opts,
		now:     time.Now,
	}
}

// Get returns the value for key if present and not expired. An expired entry
// is removed on the way out; both paths count as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return zero, false
	}
	now := c.now()
	if e.expired(now) {
		c.remove(key)
		c.misses++
		return zero, false
	}
	c.hits++
	e.LastAccessed = now
	e.AccessCount++
	return e.Data, true
}

// Set inserts or replaces the value for key, evicting least-recently-accessed
// entries first if the insert would exceed the configured bounds.
func (c *Cache[T]) Set(key string, value T, opts SetOptions) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	size := opts.SizeHint
	if size <= 0 {
		size = estimateSize(value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Replacing frees the old entry's budget before bounds are checked.
	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	c.evictForSpace(size)

	now := c.now()
	c.seq++
	c.entries[key] = &Entry[T]{
		Data:         value,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastAccessed: now,
		SizeBytes:    size,
		Tags:         opts.Tags,
		Seq:          c.seq,
	}
	c.totalBytes += int64(size)
}

// Delete removes key and reports whether it was present.
func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	if ok {
		c.remove(key)
	}
	return ok
}

// Has reports whether key is present and unexpired. It does not count as an
// access: LastAccessed and the hit/miss counters are left untouched, so
// probing existence never perturbs eviction order.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && !e.expired(c.now())
}

// InvalidateByTags removes every entry whose tag set intersects tags and
// returns how many were removed.
func (c *Cache[T]) InvalidateByTags(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		if e.hasAnyTag(tags) {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry. Hit/miss counters are preserved.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[T])
	c.totalBytes = 0
}

// Stats returns current counters and occupancy.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Hits:           c.hits,
		Misses:         c.misses,
		TotalSizeBytes: c.totalBytes,
		EntryCount:     len(c.entries),
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total) * 100
	}
	for _, e := range c.entries {
		if s.OldestEntryAt.IsZero() || e.CreatedAt.Before(s.OldestEntryAt) {
			s.OldestEntryAt = e.CreatedAt
		}
		if e.CreatedAt.After(s.NewestEntryAt) {
			s.NewestEntryAt = e.CreatedAt
		}
	}
	return s
}

// StartSweeper evicts expired entries on a timer until ctx is cancelled.
func (c *Cache[T]) StartSweeper(ctx context.Context) {
	t := time.NewTicker(c.opts.SweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := c.Sweep()
			if n > 0 {
				slog.Debug("cache sweep evicted expired entries", "count", n)
			}
		}
	}
}

// Sweep removes every expired entry immediately and returns the count.
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			c.remove(key)
			removed++
		}
	}
	return removed
}

// remove deletes key and releases its size budget. Callers hold c.mu.
func (c *Cache[T]) remove(key string) {
	if e, ok := c.entries[key]; ok {
		c.totalBytes -= int64(e.SizeBytes)
		delete(c.entries, key)
	}
}

// evictForSpace makes room for an incoming entry of the given size by
// repeatedly evicting the least-recently-accessed entry (ties broken by
// lowest insertion order). Callers hold c.mu.
func (c *Cache[T]) evictForSpace(incoming int) {
	for len(c.entries) > 0 {
		overCount := c.opts.MaxEntries > 0 && len(c.entries)+1 > c.opts.MaxEntries
		overBytes := c.opts.MaxBytes > 0 && c.totalBytes+int64(incoming) > c.opts.MaxBytes
		if !overCount && !overBytes {
			return
		}
		c.remove(c.lruKey())
	}
}

// lruKey returns the key with the oldest LastAccessed, lowest Seq on ties.
// Callers hold c.mu and guarantee the cache is non-empty.
func (c *Cache[T]) lruKey() string {
	var victim string
	var victimEntry *Entry[T]
	for key, e := range c.entries {
		if victimEntry == nil {
			victim, victimEntry = key, e
			continue
		}
		switch {
		case e.LastAccessed.Before(victimEntry.LastAccessed):
			victim, victimEntry = key, e
		case e.LastAccessed.Equal(victimEntry.LastAccessed) && e.Seq < victimEntry.Seq:
			victim, victimEntry = key, e
		}
	}
	return victim
}

// estimateSize approximates the footprint of a value by its JSON length.
// Exactness is not required; eviction accounting only has to stay monotonic.
func estimateSize(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 1
	}
	return len(b)
}
