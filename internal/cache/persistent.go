package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"blogfeed/internal/storage"
)

// PersistentCache mirrors a Cache's entry map to a durable KV key after every
// structural mutation (Set, Delete, InvalidateByTags, Clear). Access metadata
// updated by Get is not mirrored; correctness lives in the in-memory state
// and the mirror is best-effort only; KV failures are logged, never surfaced.
type PersistentCache[T any] struct {
	*Cache[T]
	kv  storage.KV
	key string
}

type persistedState[T any] struct {
	Entries map[string]*Entry[T] `json:"entries"`
	Seq     uint64               `json:"seq"`
}

// NewPersistent builds a cache that restores its entries from kv on
// construction. A missing or corrupt stored blob starts the cache empty.
func NewPersistent[T any](opts Options, kv storage.KV, key string) *PersistentCache[T] {
	p := &PersistentCache[T]{Cache: New[T](opts), kv: kv, key: key}
	p.load()
	return p
}

func (p *PersistentCache[T]) load() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, ok, err := p.kv.Get(ctx, p.key)
	if err != nil {
		slog.Warn("cache: loading persisted entries failed", "key", p.key, "error", err)
		return
	}
	if !ok {
		return
	}
	var state persistedState[T]
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Warn("cache: dropping corrupt persisted entries", "key", p.key, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	for key, e := range state.Entries {
		if e == nil || e.expired(now) {
			continue
		}
		p.entries[key] = e
		p.totalBytes += int64(e.SizeBytes)
	}
	p.seq = state.Seq
}

func (p *PersistentCache[T]) persist() {
	p.mu.Lock()
	state := persistedState[T]{Entries: p.entries, Seq: p.seq}
	raw, err := json.Marshal(state)
	p.mu.Unlock()
	if err != nil {
		slog.Warn("cache: encoding entries for persistence failed", "key", p.key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.kv.Set(ctx, p.key, string(raw)); err != nil {
		slog.Warn("cache: persisting entries failed", "key", p.key, "error", err)
	}
}

func (p *PersistentCache[T]) Set(key string, value T, opts SetOptions) {
	p.Cache.Set(key, value, opts)
	p.persist()
}

func (p *PersistentCache[T]) Delete(key string) bool {
	ok := p.Cache.Delete(key)
	if ok {
		p.persist()
	}
	return ok
}

func (p *PersistentCache[T]) InvalidateByTags(tags ...string) int {
	n := p.Cache.InvalidateByTags(tags...)
	if n > 0 {
		p.persist()
	}
	return n
}

func (p *PersistentCache[T]) Clear() {
	p.Cache.Clear()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.kv.Remove(ctx, p.key); err != nil {
		slog.Warn("cache: clearing persisted entries failed", "key", p.key, "error", err)
	}
}
