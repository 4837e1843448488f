// Package metrics exposes Prometheus counters for job execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks per-job execution metrics. All operations are
// safe for concurrent use.
type Collector struct {
	runsStarted *prometheus.CounterVec
	runsFailed  *prometheus.CounterVec
	runsSkipped *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobkit_runs_started_total",
			Help: "Total number of job executions started",
		}, []string{"job"}),
		runsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobkit_runs_failed_total",
			Help: "Total number of job executions that returned an error",
		}, []string{"job"}),
		runsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobkit_runs_skipped_total",
			Help: "Total number of ticks skipped because the previous run was still in flight",
		}, []string{"job"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobkit_run_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}

	reg.MustRegister(c.runsStarted, c.runsFailed, c.runsSkipped, c.runDuration)
	return c
}

// RecordStart records the start of one execution.
func (c *Collector) RecordStart(job string) {
	c.runsStarted.WithLabelValues(job).Inc()
}

// RecordDone records a finished execution and its duration.
func (c *Collector) RecordDone(job string, d time.Duration, failed bool) {
	c.runDuration.WithLabelValues(job).Observe(d.Seconds())
	if failed {
		c.runsFailed.WithLabelValues(job).Inc()
	}
}

// RecordSkip records a tick skipped while the job was still running.
func (c *Collector) RecordSkip(job string) {
	c.runsSkipped.WithLabelValues(job).Inc()
}
