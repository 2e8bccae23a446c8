package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"blogfeed/internal/cache"
	"blogfeed/internal/feed"
	"blogfeed/internal/model"
	"blogfeed/internal/storage"
	"blogfeed/internal/store"
)

// fakeFetcher serves canned results per feed URL and counts calls.
type fakeFetcher struct {
	mu      sync.Mutex
	results map[string][]model.Post
	errs    map[string]error
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: map[string][]model.Post{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, desc model.FeedDescriptor) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[desc.URL]++
	if err, ok := f.errs[desc.URL]; ok {
		return nil, err
	}
	return f.results[desc.URL], nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func descriptor(url, name string, cat model.Category, prio int) model.FeedDescriptor {
	return model.FeedDescriptor{URL: url, DisplayName: name, Category: cat, Priority: prio}
}

func relevantPost(id, title string, cat model.Category, source string, pub time.Time) model.Post {
	return model.Post{
		ID:          id,
		Title:       title,
		Link:        "https://example.com/" + id,
		PublishDate: pub,
		CreatedAt:   pub,
		Source:      source,
		Category:    cat,
	}
}

func newTestService(f Fetcher, feeds []model.FeedDescriptor) (*Service, *store.Store) {
	st := store.New(storage.NewMemoryKV(), store.Options{})
	c := cache.New[[]model.Post](cache.Options{})
	return New(c, f, st, feeds, Options{CacheTTL: time.Minute}), st
}

func TestFetchFiltersIrrelevantPosts(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "Feed One", model.CategoryAIML, 1)}
	f.results["u1"] = []model.Post{
		relevantPost("ai", "Scaling LLM inference at our startup", model.CategoryAIML, "Feed One", now),
		relevantPost("food", "My grandmother's lasagna recipe", model.CategoryAIML, "Feed One", now),
	}
	svc, _ := newTestService(f, feeds)

	posts, err := svc.FetchLatestPosts(context.Background())
	if err != nil {
		t.Fatalf("FetchLatestPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].ID != "ai" {
		t.Errorf("kept %q, want the on-topic post", posts[0].ID)
	}
}

func TestOneFailingFeedDoesNotAbortOthers(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{
		descriptor("ok1", "One", model.CategoryAIML, 1),
		descriptor("bad", "Two", model.CategoryAIML, 1),
		descriptor("ok2", "Three", model.CategoryDatabases, 1),
	}
	f.results["ok1"] = []model.Post{relevantPost("p1", "New LLM benchmark results", model.CategoryAIML, "One", now)}
	f.errs["bad"] = &feed.Error{Kind: feed.KindNetwork, Feed: "Two", Err: errors.New("connection refused")}
	f.results["ok2"] = []model.Post{relevantPost("p2", "Postgres replication deep dive", model.CategoryDatabases, "Three", now)}
	svc, _ := newTestService(f, feeds)

	posts, err := svc.FetchLatestPosts(context.Background())
	if err != nil {
		t.Fatalf("FetchLatestPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("got %d posts, want 2 from the healthy feeds", len(posts))
	}
	for _, p := range posts {
		if p.Source == "Two" {
			t.Error("failing feed contributed a post")
		}
	}
}

func TestTotalFailureFallsBackToStore(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	f.errs["u1"] = &feed.Error{Kind: feed.KindNetwork, Feed: "One", Err: errors.New("down")}
	svc, st := newTestService(f, feeds)

	seeded := relevantPost("stored", "Old but stored LLM article", model.CategoryAIML, "One", now.AddDate(0, 0, -1))
	if err := st.ReplaceActive(context.Background(), []model.Post{seeded}); err != nil {
		t.Fatal(err)
	}

	posts, err := svc.FetchLatestPosts(context.Background())
	if err != nil {
		t.Fatalf("store fallback should not error: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != "stored" {
		t.Errorf("got %v, want the stored post", posts)
	}
}

func TestTotalFailureWithNothingStored(t *testing.T) {
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	f.errs["u1"] = &feed.Error{Kind: feed.KindTimeout, Feed: "One", Err: errors.New("deadline")}
	svc, _ := newTestService(f, feeds)

	_, err := svc.FetchLatestPosts(context.Background())
	if !errors.Is(err, ErrAggregateFailure) {
		t.Errorf("err = %v, want ErrAggregateFailure", err)
	}
}

func TestCacheShortCircuitsNetwork(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	f.results["u1"] = []model.Post{relevantPost("p1", "LLM quantization tricks", model.CategoryAIML, "One", now)}
	svc, _ := newTestService(f, feeds)

	if _, err := svc.FetchLatestPosts(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FetchLatestPosts(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.callCount("u1"); got != 1 {
		t.Errorf("feed fetched %d times, want 1 (second call served from cache)", got)
	}
}

func TestResultsAreRanked(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{
		descriptor("u1", "Low", model.CategoryAIML, 1),
		descriptor("u2", "High", model.CategoryAIML, 9),
	}
	f.results["u1"] = []model.Post{
		relevantPost("older", "LLM retrospective", model.CategoryAIML, "Low", now.Add(-time.Hour)),
		relevantPost("tied-low", "Model serving notes", model.CategoryAIML, "Low", now),
	}
	f.results["u2"] = []model.Post{
		relevantPost("tied-high", "Neural net compilers", model.CategoryAIML, "High", now),
	}
	svc, _ := newTestService(f, feeds)

	posts, err := svc.FetchLatestPosts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	if posts[0].ID != "tied-high" {
		t.Errorf("first = %q, want the higher-priority source on the date tie", posts[0].ID)
	}
	if posts[2].ID != "older" {
		t.Errorf("last = %q, want the oldest post", posts[2].ID)
	}
}

func TestPostsByCategory(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{
		descriptor("u1", "AI", model.CategoryAIML, 1),
		descriptor("u2", "DB", model.CategoryDatabases, 1),
	}
	f.results["u1"] = []model.Post{relevantPost("a", "Transformer internals", model.CategoryAIML, "AI", now)}
	f.results["u2"] = []model.Post{relevantPost("d", "Postgres indexing guide", model.CategoryDatabases, "DB", now)}
	svc, _ := newTestService(f, feeds)

	posts, err := svc.PostsByCategory(context.Background(), model.CategoryDatabases)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].ID != "d" {
		t.Errorf("got %v, want only the databases post", posts)
	}

	if _, err := svc.PostsByCategory(context.Background(), model.Category("bogus")); err == nil {
		t.Error("unknown category should error")
	}
}

func TestCachedPostsIsCacheOnly(t *testing.T) {
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	svc, _ := newTestService(f, feeds)

	if _, ok := svc.CachedPosts(); ok {
		t.Error("empty cache should report no posts")
	}
	if got := f.callCount("u1"); got != 0 {
		t.Errorf("CachedPosts hit the network: %d calls", got)
	}
}

func TestArchivedPostsExcludedFromListing(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	fresh := relevantPost("p1", "LLM agents in production", model.CategoryAIML, "One", now)
	f.results["u1"] = []model.Post{fresh}
	svc, st := newTestService(f, feeds)

	// The post is already archived in the durable store.
	archived := fresh
	archived.IsArchived = true
	col := model.StoredCollection{
		Posts:          []model.Post{archived},
		CategoryCounts: model.CountByCategory([]model.Post{archived}),
	}
	data, err := json.Marshal(col)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Import(context.Background(), data); err != nil {
		t.Fatal(err)
	}

	posts, err := svc.FetchLatestPosts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("archived post leaked into the active listing: %v", posts)
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	now := time.Now()
	f := newFakeFetcher()
	feeds := []model.FeedDescriptor{descriptor("u1", "One", model.CategoryAIML, 1)}
	f.results["u1"] = []model.Post{relevantPost("p1", "GPT fine-tuning walkthrough", model.CategoryAIML, "One", now)}
	svc, _ := newTestService(f, feeds)

	svc.FetchLatestPosts(context.Background())
	svc.ClearCache()
	svc.FetchLatestPosts(context.Background())

	if got := f.callCount("u1"); got != 2 {
		t.Errorf("feed fetched %d times, want 2 after cache clear", got)
	}
}
