package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks outbox rows handed to the broker.
type RelayMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  prometheus.Histogram
}

func NewRelayMetrics(reg prometheus.Registerer, service string) *RelayMetrics {
	if reg == nil {
		return &RelayMetrics{}
	}
	labels := serviceLabels(service)
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "outbox_published_total",
		Help:        "Outbox rows confirmed by the broker.",
		ConstLabels: labels,
	}, []string{"event_type"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "outbox_publish_failures_total",
		Help:        "Outbox publish attempts the broker did not confirm.",
		ConstLabels: labels,
	}, []string{"event_type"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "outbox_publish_duration_seconds",
		Help:        "Time from publish to broker confirmation.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	})
	reg.MustRegister(published, failures, duration)
	return &RelayMetrics{published: published, failures: failures, duration: duration}
}

func (m *RelayMetrics) IncPublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *RelayMetrics) IncFailure(eventType string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *RelayMetrics) ObservePublish(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
