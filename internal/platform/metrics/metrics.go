// Package metrics holds the service-level Prometheus collectors. Services
// accept a nil *Metrics and skip instrumentation, which is how tests use them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RecordsCreated     *prometheus.CounterVec
	AccessDecisions    *prometheus.CounterVec
	AccessCacheResults *prometheus.CounterVec
	AuditEntries       *prometheus.CounterVec
	AuditPurged        *prometheus.CounterVec
	BulkItems          *prometheus.CounterVec
	GroupsExpired      prometheus.Counter
	OperationLatency   *prometheus.HistogramVec
}

func New() *Metrics {
	return &Metrics{
		RecordsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_records_created_total",
			Help: "Records created, by model",
		}, []string{"model"}),
		AccessDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_access_decisions_total",
			Help: "Access evaluations, by level and outcome",
		}, []string{"level", "allowed"}),
		AccessCacheResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_access_cache_results_total",
			Help: "Access decision cache lookups, by result",
		}, []string{"result"}),
		AuditEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_audit_entries_total",
			Help: "Audit entries written, by kind and action",
		}, []string{"kind", "action"}),
		AuditPurged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_audit_entries_purged_total",
			Help: "Audit entries removed by retention, by kind",
		}, []string{"kind"}),
		BulkItems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stewardship_bulk_items_total",
			Help: "Bulk operation items, by operation and outcome",
		}, []string{"operation", "outcome"}),
		GroupsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stewardship_custom_groups_expired_total",
			Help: "Temporary custom groups archived after their expiry",
		}),
		OperationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stewardship_operation_duration_seconds",
			Help:    "Latency of stewardship service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncRecordCreated(model string) {
	if m == nil {
		return
	}
	m.RecordsCreated.WithLabelValues(model).Inc()
}

func (m *Metrics) IncAccessDecision(level string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "false"
	if allowed {
		outcome = "true"
	}
	m.AccessDecisions.WithLabelValues(level, outcome).Inc()
}

func (m *Metrics) IncAccessCache(result string) {
	if m == nil {
		return
	}
	m.AccessCacheResults.WithLabelValues(result).Inc()
}

func (m *Metrics) IncAuditEntry(kind, action string) {
	if m == nil {
		return
	}
	m.AuditEntries.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) AddAuditPurged(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.AuditPurged.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) IncBulkItem(operation string, ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "succeeded"
	}
	m.BulkItems.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AddGroupsExpired(n int) {
	if m == nil || n == 0 {
		return
	}
	m.GroupsExpired.Add(float64(n))
}

func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.OperationLatency.WithLabelValues(operation).Observe(seconds)
}
