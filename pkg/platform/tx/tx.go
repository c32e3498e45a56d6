// Package tx carries the active database transaction through context and
// provides the transactional boundaries used by the stewardship services.
package tx

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "stewardship/pkg/domain-errors"
	platformsync "stewardship/pkg/platform/sync"
)

type txKey struct{}
type shardKey struct{}

// WithTx returns a context carrying the given SQL transaction.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// From returns the SQL transaction stored in ctx, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok && tx != nil
}

// Runner executes fn atomically. The key names the resource being mutated so
// that in-memory implementations can serialize work on the same record while
// unrelated records proceed in parallel. Nested calls join the outer unit.
type Runner interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// DefaultTimeout bounds a transaction when the caller set no deadline.
const DefaultTimeout = 5 * time.Second

var (
	shardLockWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stewardship_shard_lock_wait_seconds",
		Help:    "Time spent waiting to acquire a record shard lock",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})
	shardLockAcquisitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stewardship_shard_lock_acquisitions_total",
		Help: "Total number of record shard lock acquisitions",
	})
)

// ShardedRunner serializes mutations per key using a sharded mutex.
// It backs the in-memory stores.
type ShardedRunner struct {
	mu      *platformsync.ShardedMutex
	timeout time.Duration
}

// NewShardedRunner creates a runner. A zero timeout uses DefaultTimeout.
func NewShardedRunner(timeout time.Duration) *ShardedRunner {
	return &ShardedRunner{mu: platformsync.NewShardedMutex(), timeout: timeout}
}

func (r *ShardedRunner) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Already inside a unit of work; the outer caller holds the lock.
	if _, ok := ctx.Value(shardKey{}).(string); ok {
		return fn(ctx)
	}

	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	lockStart := time.Now()
	r.mu.Lock(key)
	shardLockWaitDuration.Observe(time.Since(lockStart).Seconds())
	shardLockAcquisitions.Inc()
	defer r.mu.Unlock(key)

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(context.WithValue(ctx, shardKey{}, key))
}

// PostgresRunner wraps fn in a database transaction stored on the context.
// Stores pick it up through From.
type PostgresRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresRunner creates a runner. A zero timeout uses DefaultTimeout.
func NewPostgresRunner(db *sql.DB, timeout time.Duration) *PostgresRunner {
	return &PostgresRunner{db: db, timeout: timeout}
}

func (r *PostgresRunner) RunInTx(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, ok := From(ctx); ok {
		return fn(ctx)
	}

	ctx, cancel := withDefaultTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
