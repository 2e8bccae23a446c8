package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"blogfeed/internal/model"
	"blogfeed/internal/storage"
)

// ErrImportValidation marks a rejected backup payload. Existing state is
// never mutated on rejection.
var ErrImportValidation = errors.New("store: invalid import data")

const defaultCollectionKey = "posts:collection"

// Options tune the lifecycle thresholds. Both transitions are driven purely
// by post age.
type Options struct {
	Key          string
	ArchiveAfter time.Duration // Active -> Archived past this age
	PurgeAfter   time.Duration // removed entirely past this age
}

// Store owns the durable StoredCollection and is the only writer to it.
// Mutations are serialized behind a mutex; every mutation persists the whole
// collection in a single KV write.
type Store struct {
	mu   sync.Mutex
	kv   storage.KV
	opts Options

	// now is swappable in tests.
	now func() time.Time
}

func New(kv storage.KV, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = defaultCollectionKey
	}
	if opts.ArchiveAfter <= 0 {
		opts.ArchiveAfter = 21 * 24 * time.Hour
	}
	if opts.PurgeAfter <= 0 {
		opts.PurgeAfter = 150 * 24 * time.Hour
	}
	return &Store{kv: kv, opts: opts, now: time.Now}
}

// Load reads the stored collection. Missing or corrupt stored data comes
// back as an empty collection; corruption is logged, never fatal.
func (s *Store) Load(ctx context.Context) (model.StoredCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (model.StoredCollection, error) {
	empty := model.StoredCollection{CategoryCounts: map[model.Category]int{}}
	raw, ok, err := s.kv.Get(ctx, s.opts.Key)
	if err != nil {
		return empty, fmt.Errorf("store: reading collection: %w", err)
	}
	if !ok {
		return empty, nil
	}
	var col model.StoredCollection
	if err := json.Unmarshal([]byte(raw), &col); err != nil {
		slog.Warn("store: dropping corrupt stored collection", "error", err)
		return empty, nil
	}
	if col.CategoryCounts == nil {
		col.CategoryCounts = map[model.Category]int{}
	}
	return col, nil
}

func (s *Store) save(ctx context.Context, col model.StoredCollection) error {
	col.CategoryCounts = model.CountByCategory(col.Posts)
	raw, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("store: encoding collection: %w", err)
	}
	if err := s.kv.Set(ctx, s.opts.Key, string(raw)); err != nil {
		return fmt.Errorf("store: writing collection: %w", err)
	}
	return nil
}

// ReplaceActive installs a fresh working set from a successful aggregation
// cycle. Currently archived posts not present in the fresh set are carried
// over so an archive is never silently lost to a fetch; a fresh post whose
// id is already archived stays archived. CreatedAt is preserved for posts
// the store has seen before.
func (s *Store) ReplaceActive(ctx context.Context, fresh []model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]model.Post, len(existing.Posts))
	for _, p := range existing.Posts {
		known[p.ID] = p
	}

	posts := make([]model.Post, 0, len(fresh))
	seen := make(map[string]bool, len(fresh))
	for _, p := range fresh {
		if seen[p.ID] {
			continue // duplicate within one fetch cycle
		}
		seen[p.ID] = true
		if old, ok := known[p.ID]; ok {
			p.CreatedAt = old.CreatedAt
			p.IsArchived = old.IsArchived
		}
		posts = append(posts, p)
	}
	for _, p := range existing.Posts {
		if p.IsArchived && !seen[p.ID] {
			posts = append(posts, p)
		}
	}

	return s.save(ctx, model.StoredCollection{
		Posts:       posts,
		LastFetchAt: s.now(),
	})
}

// ActivePosts returns the non-archived posts currently stored.
func (s *Store) ActivePosts(ctx context.Context) ([]model.Post, error) {
	col, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Post, 0, len(col.Posts))
	for _, p := range col.Posts {
		if !p.IsArchived {
			active = append(active, p)
		}
	}
	return active, nil
}
