package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"blogfeed/internal/model"

	"github.com/mmcdole/gofeed"
)

// Config holds the settings of the remote feed-to-JSON API.
type Config struct {
	APIBase string        // e.g. https://api.rss2json.com/v1/api.json; empty enables direct RSS mode
	APIKey  string
	Count   int           // items to request per feed
	Timeout time.Duration // per-request bound
}

// Client fetches one feed per call and is the single point of normalization:
// id derivation, description sanitization, and descriptor stamping all
// happen here.
type Client struct {
	cfg    Config
	client *http.Client
	parser *gofeed.Parser

	// now is swappable in tests.
	now func() time.Time
}

func NewClient(cfg Config) *Client {
	if cfg.Count <= 0 {
		cfg.Count = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{},
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// envelope mirrors the JSON API response shape. A status other than "ok" is
// a failed fetch even on HTTP 200.
type envelope struct {
	Status string    `json:"status"`
	Items  []rawItem `json:"items"`
}

type rawItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
}

// Fetch performs a single bounded attempt against one feed and maps the raw
// items into normalized posts. It fails with a typed *Error.
func (c *Client) Fetch(ctx context.Context, desc model.FeedDescriptor) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.cfg.APIBase == "" {
		return c.fetchDirect(ctx, desc)
	}
	return c.fetchAPI(ctx, desc)
}

func (c *Client) fetchAPI(ctx context.Context, desc model.FeedDescriptor) ([]model.Post, error) {
	q := url.Values{
		"rss_url": {desc.URL},
		"count":   {fmt.Sprintf("%d", c.cfg.Count)},
	}
	if c.cfg.APIKey != "" {
		q.Set("api_key", c.cfg.APIKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIBase+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Feed: desc.DisplayName, Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.transportError(desc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &Error{Kind: KindRateLimited, Feed: desc.DisplayName,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindBadResponse, Feed: desc.DisplayName,
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Kind: KindBadResponse, Feed: desc.DisplayName, Err: err}
	}
	if env.Status != "ok" {
		return nil, &Error{Kind: KindBadResponse, Feed: desc.DisplayName,
			Err: fmt.Errorf("api status %q", env.Status)}
	}

	now := c.now()
	posts := make([]model.Post, 0, len(env.Items))
	for _, it := range env.Items {
		posts = append(posts, c.normalize(desc, it.Title, it.Description, it.Link, parsePubDate(it.PubDate, now), now))
	}
	return posts, nil
}

// fetchDirect parses the feed URL itself when no JSON API is configured.
func (c *Client) fetchDirect(ctx context.Context, desc model.FeedDescriptor) ([]model.Post, error) {
	parsed, err := c.parser.ParseURLWithContext(desc.URL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusTooManyRequests {
				return nil, &Error{Kind: KindRateLimited, Feed: desc.DisplayName, Err: err}
			}
			return nil, &Error{Kind: KindBadResponse, Feed: desc.DisplayName, Err: err}
		}
		return nil, c.transportError(desc, err)
	}

	now := c.now()
	items := parsed.Items
	if c.cfg.Count > 0 && len(items) > c.cfg.Count {
		items = items[:c.cfg.Count]
	}
	posts := make([]model.Post, 0, len(items))
	for _, it := range items {
		pub := now
		if it.PublishedParsed != nil {
			pub = *it.PublishedParsed
		} else if it.UpdatedParsed != nil {
			pub = *it.UpdatedParsed
		}
		desc2 := it.Description
		if desc2 == "" {
			desc2 = it.Content
		}
		posts = append(posts, c.normalize(desc, it.Title, desc2, it.Link, pub, now))
	}
	return posts, nil
}

func (c *Client) normalize(desc model.FeedDescriptor, title, description, link string, pub, now time.Time) model.Post {
	return model.Post{
		ID:          PostID(link, pub),
		Title:       title,
		Description: SanitizeDescription(description),
		Link:        link,
		PublishDate: pub,
		CreatedAt:   now,
		Source:      desc.DisplayName,
		Category:    desc.Category,
	}
}

func (c *Client) transportError(desc model.FeedDescriptor, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Feed: desc.DisplayName, Err: err}
	}
	return &Error{Kind: KindNetwork, Feed: desc.DisplayName, Err: err}
}

// pubDateLayouts covers the formats the JSON API and common feeds emit.
var pubDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
}

func parsePubDate(s string, fallback time.Time) time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
