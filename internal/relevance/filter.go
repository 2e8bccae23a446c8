package relevance

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"blogfeed/internal/model"
)

// Filter keeps posts whose lowercase title+description contains at least one
// keyword from their category's keyword set. Posts in a category with no
// keyword set, or matching none, are dropped. Deliberately a plain substring
// match: reproducibility over cleverness.
func Filter(posts []model.Post) []model.Post {
	kept := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if matchesCategory(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func matchesCategory(p model.Post) bool {
	keywords := categoryKeywords[p.Category]
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(p.Title + " " + p.Description)
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// FilterHighQuality applies the category filter plus the stricter quality
// heuristics used by trending/high-engagement views: a quality-indicator
// term must be present, spam phrases must be absent, no more than 30% of
// letters may be uppercase, and the combined text must be at least 50
// characters long.
func FilterHighQuality(posts []model.Post) []model.Post {
	kept := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if !matchesCategory(p) {
			continue
		}
		text := p.Title + " " + p.Description
		lower := strings.ToLower(text)
		if len(text) < 50 {
			continue
		}
		if uppercaseRatio(text) > 0.30 {
			continue
		}
		if containsAny(lower, spamPhrases) {
			continue
		}
		if !containsAny(lower, qualityIndicators) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func uppercaseRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// Rank orders posts by publish date descending, breaking ties by source
// priority descending (unknown sources count as 0). The sort is stable, so
// posts equal on both keys keep their original relative order.
func Rank(posts []model.Post, priorities map[string]int) []model.Post {
	ranked := make([]model.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if !a.PublishDate.Equal(b.PublishDate) {
			return a.PublishDate.After(b.PublishDate)
		}
		return priorities[a.Source] > priorities[b.Source]
	})
	return ranked
}

// TrendingScore rates a post for the trending view. It is used only to pick
// a top-K subset, never for the main listing order.
func TrendingScore(p model.Post, priority int, now time.Time) float64 {
	days := now.Sub(p.PublishDate).Hours() / 24
	recency := 10 - days
	if recency < 0 {
		recency = 0
	}

	score := recency
	lower := strings.ToLower(p.Title + " " + p.Description)
	for _, t := range engagementTerms {
		if strings.Contains(lower, t) {
			score += 2
		}
	}
	if n := len(p.Title); n > 30 && n < 100 {
		score += 3
	}
	return score + float64(priority)
}

// Trending returns up to limit posts ordered by descending trending score.
func Trending(posts []model.Post, priorities map[string]int, limit int, now time.Time) []model.Post {
	scored := make([]model.Post, len(posts))
	copy(scored, posts)
	sort.SliceStable(scored, func(i, j int) bool {
		return TrendingScore(scored[i], priorities[scored[i].Source], now) >
			TrendingScore(scored[j], priorities[scored[j].Source], now)
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
