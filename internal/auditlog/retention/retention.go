// Package retention periodically purges audit entries older than the
// configured retention period.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stewardship/internal/auditlog/models"
)

// Purger deletes entries of the given kinds older than olderThan.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration, kinds ...models.Kind) (int64, error)
}

// Worker runs the purge on a fixed interval.
type Worker struct {
	purger    Purger
	retention time.Duration
	kinds     []models.Kind
	interval  time.Duration
	logger    *slog.Logger
}

type Option func(*Worker)

// WithInterval overrides the purge interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithKinds restricts the purge to some logs.
func WithKinds(kinds ...models.Kind) Option {
	return func(w *Worker) {
		w.kinds = kinds
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(purger Purger, retention time.Duration, opts ...Option) (*Worker, error) {
	if purger == nil {
		return nil, fmt.Errorf("purger is required")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}
	w := &Worker{
		purger:    purger,
		retention: retention,
		interval:  time.Hour,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs the purge periodically until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit retention purge failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single purge and returns the number of entries removed.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	return w.purger.Purge(ctx, w.retention, w.kinds...)
}
