// Package expiry archives temporary custom access groups once their expiry
// date has passed.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Expirer archives every group whose expiry has passed.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// Worker sweeps for expired groups on a fixed interval.
type Worker struct {
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
}

type Option func(*Worker)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(expirer Expirer, opts ...Option) (*Worker, error) {
	if expirer == nil {
		return nil, fmt.Errorf("expirer is required")
	}
	w := &Worker{
		expirer:  expirer,
		interval: 5 * time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start sweeps periodically until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := w.RunOnce(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "custom group expiry sweep failed", "error", err, "archived", n)
				continue
			}
			if n > 0 {
				w.logger.InfoContext(ctx, "custom groups expired", "archived", n)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single sweep and returns the number of groups archived.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	return w.expirer.ExpireDue(ctx)
}
