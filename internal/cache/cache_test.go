package cache

import (
	"fmt"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(opts Options, clk *fakeClock) *Cache[string] {
	c := New[string](opts)
	c.now = clk.now
	return c
}

func TestGetSetRoundTrip(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	c.Set("k", "v", SetOptions{TTL: time.Minute})
	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if got != "v" {
		t.Errorf("got %q, want %q", got, "v")
	}
}

func TestTTLExpiry(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	c.Set("k", "v", SetOptions{TTL: 100 * time.Millisecond})
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	clk.advance(150 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}
	if n := c.Stats().EntryCount; n != 0 {
		t.Errorf("expired entry not evicted on get path: entry count %d", n)
	}
}

func TestLRUEntryBound(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxEntries: 3}, clk)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v", SetOptions{TTL: time.Hour})
		clk.advance(time.Second)
	}

	if n := c.Stats().EntryCount; n != 3 {
		t.Fatalf("entry count = %d, want 3", n)
	}
	// k0 and k1 were the least recently accessed at each eviction.
	for _, key := range []string{"k0", "k1"} {
		if c.Has(key) {
			t.Errorf("%s should have been evicted", key)
		}
	}
	for _, key := range []string{"k2", "k3", "k4"} {
		if !c.Has(key) {
			t.Errorf("%s should still be present", key)
		}
	}
}

func TestLRUEvictsLeastRecentlyAccessed(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxEntries: 2}, clk)

	c.Set("a", "1", SetOptions{TTL: time.Hour})
	clk.advance(time.Second)
	c.Set("b", "2", SetOptions{TTL: time.Hour})
	clk.advance(time.Second)

	// Touch a so b becomes the LRU victim.
	c.Get("a")
	clk.advance(time.Second)

	c.Set("c", "3", SetOptions{TTL: time.Hour})
	if c.Has("b") {
		t.Error("b was accessed least recently and should have been evicted")
	}
	if !c.Has("a") || !c.Has("c") {
		t.Error("a and c should be present")
	}
}

func TestLRUTieBrokenByInsertionOrder(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxEntries: 2}, clk)

	// Same LastAccessed for both; lowest insertion order loses.
	c.Set("first", "1", SetOptions{TTL: time.Hour})
	c.Set("second", "2", SetOptions{TTL: time.Hour})
	c.Set("third", "3", SetOptions{TTL: time.Hour})

	if c.Has("first") {
		t.Error("first should have been evicted on the tie")
	}
	if !c.Has("second") || !c.Has("third") {
		t.Error("second and third should be present")
	}
}

func TestByteBoundEviction(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxBytes: 100}, clk)

	c.Set("a", "1", SetOptions{TTL: time.Hour, SizeHint: 60})
	clk.advance(time.Second)
	c.Set("b", "2", SetOptions{TTL: time.Hour, SizeHint: 60})

	if c.Has("a") {
		t.Error("a should have been evicted to fit b")
	}
	if got := c.Stats().TotalSizeBytes; got != 60 {
		t.Errorf("total size = %d, want 60", got)
	}
}

func TestHasDoesNotTouchLRUOrStats(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxEntries: 2}, clk)

	c.Set("a", "1", SetOptions{TTL: time.Hour})
	clk.advance(time.Second)
	c.Set("b", "2", SetOptions{TTL: time.Hour})
	clk.advance(time.Second)

	// Probing a must not protect it from eviction.
	c.Has("a")
	clk.advance(time.Second)
	c.Set("c", "3", SetOptions{TTL: time.Hour})

	if c.Has("a") {
		t.Error("Has must not update LastAccessed; a should be the victim")
	}
	s := c.Stats()
	if s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Has must not count as access: hits=%d misses=%d", s.Hits, s.Misses)
	}
}

func TestInvalidateByTags(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	c.Set("a", "1", SetOptions{TTL: time.Hour, Tags: []string{"posts"}})
	c.Set("b", "2", SetOptions{TTL: time.Hour, Tags: []string{"posts", "feeds"}})
	c.Set("c", "3", SetOptions{TTL: time.Hour, Tags: []string{"other"}})
	c.Set("d", "4", SetOptions{TTL: time.Hour})

	if n := c.InvalidateByTags("posts"); n != 2 {
		t.Errorf("removed %d entries, want 2", n)
	}
	if c.Has("a") || c.Has("b") {
		t.Error("tagged entries should be gone")
	}
	if !c.Has("c") || !c.Has("d") {
		t.Error("untagged entries should remain")
	}
}

func TestStats(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	if got := c.Stats().HitRate; got != 0 {
		t.Errorf("hit rate with no requests = %f, want 0", got)
	}

	c.Set("k", "v", SetOptions{TTL: time.Hour})
	c.Get("k")
	c.Get("k")
	c.Get("missing")
	c.Get("missing-too")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 2 {
		t.Fatalf("hits=%d misses=%d, want 2/2", s.Hits, s.Misses)
	}
	if s.HitRate != 50 {
		t.Errorf("hit rate = %f, want 50", s.HitRate)
	}
	if s.EntryCount != 1 {
		t.Errorf("entry count = %d, want 1", s.EntryCount)
	}
	if s.OldestEntryAt.IsZero() || !s.OldestEntryAt.Equal(s.NewestEntryAt) {
		t.Errorf("oldest/newest mismatch for single entry: %v / %v", s.OldestEntryAt, s.NewestEntryAt)
	}
}

func TestDelete(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	c.Set("k", "v", SetOptions{TTL: time.Hour})
	if !c.Delete("k") {
		t.Error("Delete should report the key was present")
	}
	if c.Delete("k") {
		t.Error("second Delete should report absence")
	}
	if got := c.Stats().TotalSizeBytes; got != 0 {
		t.Errorf("size after delete = %d, want 0", got)
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{}, clk)

	c.Set("short", "v", SetOptions{TTL: time.Minute})
	c.Set("long", "v", SetOptions{TTL: time.Hour})

	clk.advance(5 * time.Minute)
	if n := c.Sweep(); n != 1 {
		t.Errorf("sweep removed %d entries, want 1", n)
	}
	if c.Has("short") {
		t.Error("short should be swept")
	}
	if !c.Has("long") {
		t.Error("long should survive the sweep")
	}
}

func TestReplaceExistingKey(t *testing.T) {
	clk := newFakeClock()
	c := newTestCache(Options{MaxEntries: 2}, clk)

	c.Set("a", "1", SetOptions{TTL: time.Hour})
	c.Set("b", "2", SetOptions{TTL: time.Hour})
	// Replacing must not count as a new entry and must not evict.
	c.Set("a", "updated", SetOptions{TTL: time.Hour})

	if n := c.Stats().EntryCount; n != 2 {
		t.Fatalf("entry count = %d, want 2", n)
	}
	got, ok := c.Get("a")
	if !ok || got != "updated" {
		t.Errorf("got %q/%v, want updated value", got, ok)
	}
	if !c.Has("b") {
		t.Error("b should not have been evicted by a replace")
	}
}
