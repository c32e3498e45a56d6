package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the audit outbox worker.
type Metrics struct {
	PendingDepth    prometheus.Gauge
	PublishedTotal  prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDuration prometheus.Histogram
	BatchSize       prometheus.Histogram
	PollDuration    prometheus.Histogram
	CircuitOpen     prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		PendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stewardship_outbox_pending_total",
			Help: "Current number of pending (unpublished) audit outbox entries",
		}),
		PublishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stewardship_outbox_published_total",
			Help: "Total number of audit outbox entries published to Kafka",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stewardship_outbox_publish_failures_total",
			Help: "Total number of audit outbox publish failures",
		}),
		PublishDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stewardship_outbox_publish_duration_seconds",
			Help:    "Time taken to publish an audit outbox entry to Kafka",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stewardship_outbox_batch_size",
			Help:    "Number of entries processed per batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		PollDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stewardship_outbox_poll_duration_seconds",
			Help:    "Time taken for each poll cycle",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CircuitOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stewardship_outbox_circuit_open",
			Help: "1 while the audit sink circuit breaker is open",
		}),
	}
}

func (m *Metrics) SetPendingDepth(count int64) {
	if m == nil {
		return
	}
	m.PendingDepth.Set(float64(count))
}

func (m *Metrics) IncPublished() {
	if m == nil {
		return
	}
	m.PublishedTotal.Inc()
}

func (m *Metrics) IncPublishFailures() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}

func (m *Metrics) ObservePublishDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PublishDuration.Observe(seconds)
}

func (m *Metrics) ObserveBatchSize(size int) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(size))
}

func (m *Metrics) ObservePollDuration(seconds float64) {
	if m == nil {
		return
	}
	m.PollDuration.Observe(seconds)
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
