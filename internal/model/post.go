package model

import "time"

// Post represents a single normalized article from a feed.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link"`
	PublishDate time.Time `json:"publish_date"`
	CreatedAt   time.Time `json:"created_at"`
	Source      string    `json:"source"`
	Category    Category  `json:"category"`
	IsArchived  bool      `json:"is_archived"`
}

// Age returns how long ago the post was published, relative to now.
func (p Post) Age(now time.Time) time.Duration {
	return now.Sub(p.PublishDate)
}

// FeedDescriptor is the static configuration of one external feed.
type FeedDescriptor struct {
	URL         string   `json:"url" mapstructure:"url" yaml:"url"`
	DisplayName string   `json:"display_name" mapstructure:"display_name" yaml:"display_name"`
	Category    Category `json:"category" mapstructure:"category" yaml:"category"`
	Priority    int      `json:"priority" mapstructure:"priority" yaml:"priority"`
}

// StoredCollection is the durable snapshot owned by the post store.
// CategoryCounts is always recomputed from Posts, never mutated on its own.
type StoredCollection struct {
	Posts          []Post           `json:"posts"`
	LastFetchAt    time.Time        `json:"last_fetch_at"`
	CategoryCounts map[Category]int `json:"category_counts"`
}

// CountByCategory recomputes the per-category counts from the posts list.
func CountByCategory(posts []Post) map[Category]int {
	counts := make(map[Category]int)
	for _, p := range posts {
		counts[p.Category]++
	}
	return counts
}
