// Package worker drains the audit outbox into Kafka.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"stewardship/internal/auditlog/outbox"
	"stewardship/internal/auditlog/outbox/metrics"
	"stewardship/internal/platform/kafka/producer"
	"stewardship/pkg/platform/circuit"
)

// Publisher sends one message to the broker.
type Publisher interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Worker polls the outbox and publishes pending entries. While the circuit
// breaker is open it publishes a single probe entry per poll instead of a
// full batch.
type Worker struct {
	store        outbox.Store
	publisher    Publisher
	breaker      *circuit.Breaker
	topic        string
	batchSize    int
	pollInterval time.Duration
	retention    time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Worker)

func WithTopic(topic string) Option {
	return func(w *Worker) {
		if topic != "" {
			w.topic = topic
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithProcessedRetention sets how long published entries stay in the outbox.
func WithProcessedRetention(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.retention = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(w *Worker) {
		if b != nil {
			w.breaker = b
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(store outbox.Store, publisher Publisher, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		store:        store,
		publisher:    publisher,
		breaker:      circuit.New("audit-sink"),
		topic:        "stewardship.audit",
		batchSize:    100,
		pollInterval: 500 * time.Millisecond,
		retention:    24 * time.Hour,
		logger:       slog.Default(),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the polling loop in a background goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	sweep := time.NewTicker(time.Hour)
	defer sweep.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.drain()
			return
		case <-ticker.C:
			w.Poll(w.ctx)
		case <-sweep.C:
			w.sweepProcessed(w.ctx)
		}
	}
}

// Poll publishes one batch and returns how many entries were published.
func (w *Worker) Poll(ctx context.Context) int {
	start := time.Now()

	limit := w.batchSize
	if w.breaker.IsOpen() {
		limit = 1
	}

	entries, err := w.store.FetchUnprocessed(ctx, limit)
	if err != nil {
		w.logger.Error("failed to fetch outbox entries", "error", err)
		w.metrics.IncPublishFailures()
		return 0
	}
	if len(entries) == 0 {
		return 0
	}
	w.metrics.ObserveBatchSize(len(entries))

	var published int
	for _, entry := range entries {
		if err := w.publishEntry(ctx, entry); err != nil {
			w.logger.Error("failed to publish outbox entry",
				"id", entry.ID,
				"event_type", entry.EventType,
				"error", err,
			)
			w.metrics.IncPublishFailures()
			w.recordFailure()
			if w.breaker.IsOpen() {
				break
			}
			// retried on the next poll
			continue
		}
		w.recordSuccess()

		if err := w.store.MarkProcessed(ctx, entry.ID, w.now()); err != nil {
			// published but not marked; consumers dedupe on the entry ID key
			w.logger.Error("failed to mark entry as processed", "id", entry.ID, "error", err)
			continue
		}
		w.metrics.IncPublished()
		published++
	}

	w.metrics.ObservePollDuration(time.Since(start).Seconds())
	return published
}

func (w *Worker) publishEntry(ctx context.Context, entry *outbox.Entry) error {
	start := time.Now()
	msg := &producer.Message{
		Topic: w.topic,
		Key:   []byte(entry.RecordID),
		Value: entry.Payload,
		Headers: map[string]string{
			"entry_id":   entry.ID.String(),
			"event_type": entry.EventType,
		},
	}
	if err := w.publisher.Produce(ctx, msg); err != nil {
		return err
	}
	w.metrics.ObservePublishDuration(time.Since(start).Seconds())
	return nil
}

func (w *Worker) recordFailure() {
	if w.breaker.RecordFailure() {
		w.logger.Warn("audit sink circuit opened", "breaker", w.breaker.Name())
		w.metrics.SetCircuitOpen(true)
	}
}

func (w *Worker) recordSuccess() {
	if w.breaker.RecordSuccess() {
		w.logger.Info("audit sink circuit closed", "breaker", w.breaker.Name())
		w.metrics.SetCircuitOpen(false)
	}
}

func (w *Worker) sweepProcessed(ctx context.Context) {
	n, err := w.store.DeleteProcessedBefore(ctx, w.now().Add(-w.retention))
	if err != nil {
		w.logger.Error("failed to sweep processed outbox entries", "error", err)
		return
	}
	if n > 0 {
		w.logger.Info("outbox_sweep_completed", "deleted", n)
	}
}

// drain publishes what is left during shutdown, bounded by a short timeout.
func (w *Worker) drain() {
	w.logger.Info("draining audit outbox worker")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for ctx.Err() == nil {
		if w.Poll(ctx) == 0 {
			return
		}
	}
}

// Stop cancels the loop and waits for the drain to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateMetrics refreshes the pending depth gauge.
func (w *Worker) UpdateMetrics(ctx context.Context) error {
	if w.metrics == nil {
		return nil
	}
	count, err := w.store.CountPending(ctx)
	if err != nil {
		return err
	}
	w.metrics.SetPendingDepth(count)
	return nil
}
