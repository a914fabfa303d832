package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics records runs of the maintenance jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer, service string) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	labels := serviceLabels(service)
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "cron_job_duration_seconds",
		Help:        "Duration of maintenance jobs in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cron_job_success_total",
		Help:        "Successful maintenance job runs.",
		ConstLabels: labels,
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cron_job_failure_total",
		Help:        "Failed maintenance job runs.",
		ConstLabels: labels,
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}
