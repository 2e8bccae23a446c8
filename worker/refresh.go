package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blogfeed/internal/aggregator"
	"blogfeed/internal/store"
)

// RefreshWorker periodically runs the full aggregation pipeline so the cache
// and the durable store stay warm between reader requests.
type RefreshWorker struct {
	Service  *aggregator.Service
	Interval time.Duration
}

func (w *RefreshWorker) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RefreshWorker) runOnce(ctx context.Context) {
	posts, err := w.Service.Refresh(ctx)
	if err != nil {
		if errors.Is(err, aggregator.ErrAggregateFailure) {
			slog.Error("refresh worker: no feed succeeded and nothing stored")
		} else {
			slog.Error("refresh worker: refresh failed", "error", err)
		}
		return
	}
	slog.Info("refresh worker: cycle completed", "active_posts", len(posts))
}

// CleanupWorker runs the age-based archive/purge pass on its own schedule.
type CleanupWorker struct {
	Store    *store.Store
	Interval time.Duration
}

func (w *CleanupWorker) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 24 * time.Hour
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			res := w.Store.PerformCleanup(ctx)
			if !res.Success {
				slog.Error("cleanup worker: pass failed", "errors", res.Errors)
			}
		}
	}
}
