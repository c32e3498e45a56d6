package request

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestLatency *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stewardship_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, durationSeconds float64) {
	m.RequestLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(durationSeconds)
}
