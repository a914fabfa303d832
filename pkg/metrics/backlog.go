package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BacklogMetrics exposes the size and age of the unprocessed outbox.
type BacklogMetrics struct {
	rows   prometheus.Gauge
	oldest prometheus.Gauge
}

func NewBacklogMetrics(reg prometheus.Registerer, service string) *BacklogMetrics {
	if reg == nil {
		return &BacklogMetrics{}
	}
	labels := serviceLabels(service)
	rows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "outbox_backlog_rows",
		Help:        "Unprocessed outbox rows.",
		ConstLabels: labels,
	})
	oldest := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "outbox_backlog_oldest_seconds",
		Help:        "Age of the oldest unprocessed outbox row.",
		ConstLabels: labels,
	})
	reg.MustRegister(rows, oldest)
	return &BacklogMetrics{rows: rows, oldest: oldest}
}

// Set records the current backlog; age is zero when nothing is pending.
func (m *BacklogMetrics) Set(pending int64, age time.Duration) {
	if m == nil || m.rows == nil {
		return
	}
	m.rows.Set(float64(pending))
	m.oldest.Set(age.Seconds())
}
