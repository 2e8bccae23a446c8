package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func retryer(base string, attempts int) *Retryer {
	c := NewClient(Config{APIBase: base, Timeout: time.Second})
	return NewRetryer(c, attempts, time.Millisecond)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := retryer(srv.URL, 3).Fetch(context.Background(), testDescriptor(srv.URL))
	if err == nil {
		t.Fatal("expected failure after exhausted retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	// The last error keeps its kind.
	if KindOf(err) != KindBadResponse {
		t.Errorf("kind = %s, want bad_response", KindOf(err))
	}
}

func TestRetryStopsImmediatelyOnRateLimit(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := retryer(srv.URL, 3).Fetch(context.Background(), testDescriptor(srv.URL))
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind != KindRateLimited {
		t.Fatalf("want rate_limited error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want exactly 1", got)
	}
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"status": "ok", "items": [{"title": "t", "link": "https://x.example/p", "pubDate": "2025-05-01 10:00:00"}]}`)
	}))
	defer srv.Close()

	posts, err := retryer(srv.URL, 3).Fetch(context.Background(), testDescriptor(srv.URL))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("got %d posts, want 1", len(posts))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
}

func TestLinearBackOffDelays(t *testing.T) {
	b := &linearBackOff{base: 100 * time.Millisecond}
	for i, want := range []time.Duration{100, 200, 300} {
		if got := b.NextBackOff(); got != want*time.Millisecond {
			t.Errorf("delay %d = %v, want %v", i+1, got, want*time.Millisecond)
		}
	}
	b.Reset()
	if got := b.NextBackOff(); got != 100*time.Millisecond {
		t.Errorf("after reset delay = %v, want 100ms", got)
	}
}
