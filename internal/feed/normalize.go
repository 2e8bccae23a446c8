package feed

import (
	"crypto/sha256"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// maxDescriptionRunes caps sanitized descriptions before the truncation marker.
const maxDescriptionRunes = 200

// PostID derives a stable, collision-resistant id from a post's link and
// source-reported publish date. The same pair always yields the same id.
func PostID(link string, publishDate time.Time) string {
	h := sha256.Sum256([]byte(link + "|" + publishDate.UTC().Format(time.RFC3339)))
	return fmt.Sprintf("%x", h[:16])
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`) // best-effort removal

// SanitizeDescription strips HTML tags, decodes entities, collapses
// whitespace, and caps the result at 200 characters with a marker.
func SanitizeDescription(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) <= maxDescriptionRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxDescriptionRunes])) + "..."
}
