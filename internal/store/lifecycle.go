package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"blogfeed/internal/model"
)

// CleanupResult reports one full cleanup pass. A failed durable write is
// reported here (Success false, non-empty Errors), never thrown.
type CleanupResult struct {
	Success        bool     `json:"success"`
	ArchivedCount  int      `json:"archived_count"`
	DeletedCount   int      `json:"deleted_count"`
	RemainingCount int      `json:"remaining_count"` // posts the pass left untouched
	Errors         []string `json:"errors,omitempty"`
}

// CleanupStats is the read-only projection of what a cleanup pass would do
// right now, alongside current totals.
type CleanupStats struct {
	TotalPosts        int       `json:"total_posts"`
	ActivePosts       int       `json:"active_posts"`
	ArchivedPosts     int       `json:"archived_posts"`
	OldestPublishDate time.Time `json:"oldest_publish_date"`
	NewestPublishDate time.Time `json:"newest_publish_date"`
	PostsToArchive    int       `json:"posts_to_archive"`
	PostsToDelete     int       `json:"posts_to_delete"`
}

// PerformCleanup categorizes the whole store in one shot: posts past the
// purge threshold are removed (purge wins over archive for the same post),
// posts past the archive threshold are archived, and the updated collection
// is persisted atomically in a single write.
func (s *Store) PerformCleanup(ctx context.Context) CleanupResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result CleanupResult
	col, err := s.load(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	now := s.now()
	remaining := make([]model.Post, 0, len(col.Posts))
	for _, p := range col.Posts {
		age := p.Age(now)
		switch {
		case age > s.opts.PurgeAfter:
			result.DeletedCount++
		case age > s.opts.ArchiveAfter && !p.IsArchived:
			p.IsArchived = true
			result.ArchivedCount++
			remaining = append(remaining, p)
		default:
			// Untouched by this pass.
			result.RemainingCount++
			remaining = append(remaining, p)
		}
	}

	col.Posts = remaining
	if err := s.save(ctx, col); err != nil {
		slog.Error("store: cleanup write failed", "error", err)
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.Success = true
	slog.Info("store: cleanup completed",
		"archived", result.ArchivedCount,
		"deleted", result.DeletedCount,
		"remaining", result.RemainingCount)
	return result
}

// GetCleanupStats reports totals and the would-be effect of a cleanup pass
// without mutating anything.
func (s *Store) GetCleanupStats(ctx context.Context) (CleanupStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load(ctx)
	if err != nil {
		return CleanupStats{}, err
	}

	now := s.now()
	var stats CleanupStats
	stats.TotalPosts = len(col.Posts)
	for _, p := range col.Posts {
		if p.IsArchived {
			stats.ArchivedPosts++
		} else {
			stats.ActivePosts++
		}
		if stats.OldestPublishDate.IsZero() || p.PublishDate.Before(stats.OldestPublishDate) {
			stats.OldestPublishDate = p.PublishDate
		}
		if p.PublishDate.After(stats.NewestPublishDate) {
			stats.NewestPublishDate = p.PublishDate
		}
		age := p.Age(now)
		switch {
		case age > s.opts.PurgeAfter:
			stats.PostsToDelete++
		case age > s.opts.ArchiveAfter && !p.IsArchived:
			stats.PostsToArchive++
		}
	}
	return stats, nil
}

// RestoreArchived reverts archived posts to active. With no ids every
// archived post is restored; with ids only those are. Returns how many posts
// changed state. This is the only path that clears the archive flag.
func (s *Store) RestoreArchived(ctx context.Context, ids ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	restored := 0
	for i := range col.Posts {
		p := &col.Posts[i]
		if !p.IsArchived {
			continue
		}
		if len(ids) > 0 && !wanted[p.ID] {
			continue
		}
		p.IsArchived = false
		restored++
	}
	if restored == 0 {
		return 0, nil
	}
	if err := s.save(ctx, col); err != nil {
		return 0, err
	}
	return restored, nil
}

// Export serializes the full stored collection for backup.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	col, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(col, "", "  ")
}

// Import replaces the stored collection with a validated backup. Malformed
// payloads are rejected with ErrImportValidation and existing state is left
// untouched.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var col model.StoredCollection
	if err := json.Unmarshal(data, &col); err != nil {
		return fmt.Errorf("%w: %v", ErrImportValidation, err)
	}
	for i, p := range col.Posts {
		if p.ID == "" {
			return fmt.Errorf("%w: post %d: missing id", ErrImportValidation, i)
		}
		if p.Link == "" {
			return fmt.Errorf("%w: post %q: missing link", ErrImportValidation, p.ID)
		}
		if p.PublishDate.IsZero() {
			return fmt.Errorf("%w: post %q: missing publish date", ErrImportValidation, p.ID)
		}
		if !p.Category.Valid() {
			return fmt.Errorf("%w: post %q: unknown category %q", ErrImportValidation, p.ID, p.Category)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, col)
}
