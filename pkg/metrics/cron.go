package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CronJobMetrics tracks how long scheduled jobs take and how they end.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// NewCronJobMetrics registers on reg. A nil registerer yields a no-op recorder.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	m := &CronJobMetrics{}
	if reg == nil {
		return m
	}
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pawhaven",
		Subsystem: "cron",
		Name:      "job_duration_seconds",
		Help:      "Wall time of each cron job run.",
		Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
	}, []string{"job"})
	m.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawhaven",
		Subsystem: "cron",
		Name:      "job_runs_total",
		Help:      "Cron job runs by outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(m.duration, m.runs)
	return m
}

// Record stores one finished run; a non-nil err counts as a failure.
func (c *CronJobMetrics) Record(job string, took time.Duration, err error) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
	}
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	c.runs.WithLabelValues(job, outcome).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
