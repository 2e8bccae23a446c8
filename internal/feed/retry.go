package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blogfeed/internal/model"

	"github.com/cenkalti/backoff/v4"
)

// Retryer wraps a Client with an attempt budget and linearly increasing
// inter-attempt delay. A rate-limited failure aborts the loop immediately;
// every other kind is retried until attempts run out, and the last error is
// surfaced.
type Retryer struct {
	Client    *Client
	Attempts  int
	BaseDelay time.Duration
}

func NewRetryer(client *Client, attempts int, baseDelay time.Duration) *Retryer {
	if attempts <= 0 {
		attempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &Retryer{Client: client, Attempts: attempts, BaseDelay: baseDelay}
}

// Fetch runs the client against one feed under the retry policy.
func (r *Retryer) Fetch(ctx context.Context, desc model.FeedDescriptor) ([]model.Post, error) {
	var posts []model.Post
	attempt := 0

	op := func() error {
		attempt++
		got, err := r.Client.Fetch(ctx, desc)
		if err != nil {
			var fe *Error
			if errors.As(err, &fe) && !fe.Retryable() {
				return backoff.Permanent(err)
			}
			slog.Warn("feed fetch attempt failed",
				"feed", desc.DisplayName, "attempt", attempt, "error", err)
			return err
		}
		posts = got
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: r.BaseDelay}, uint64(r.Attempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return posts, nil
}

// linearBackOff waits attempt*base between tries: base, 2*base, 3*base, ...
type linearBackOff struct {
	base time.Duration
	n    int
}

func (l *linearBackOff) NextBackOff() time.Duration {
	l.n++
	return time.Duration(l.n) * l.base
}

func (l *linearBackOff) Reset() { l.n = 0 }
