package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records scheduled job outcomes and reconciliation counters.
type SyncMetrics struct {
	jobDuration *prometheus.HistogramVec
	jobSuccess  *prometheus.CounterVec
	jobFailure  *prometheus.CounterVec
	listings    *prometheus.CounterVec
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	jobSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	jobFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	listings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_listings_total",
		Help: "Listings touched by reconciliation runs, by outcome.",
	}, []string{"marketplace", "outcome"})
	reg.MustRegister(jobDuration, jobSuccess, jobFailure, listings)
	return &SyncMetrics{
		jobDuration: jobDuration,
		jobSuccess:  jobSuccess,
		jobFailure:  jobFailure,
		listings:    listings,
	}
}

// ObserveJobDuration records the duration for the named job.
func (m *SyncMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncJobSuccess increments the success counter for the named job.
func (m *SyncMetrics) IncJobSuccess(job string) {
	if m == nil || m.jobSuccess == nil {
		return
	}
	m.jobSuccess.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncJobFailure increments the failure counter for the named job.
func (m *SyncMetrics) IncJobFailure(job string) {
	if m == nil || m.jobFailure == nil {
		return
	}
	m.jobFailure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddListings records reconciliation outcomes (added/updated/not_found/error).
func (m *SyncMetrics) AddListings(marketplace, outcome string, count int) {
	if m == nil || m.listings == nil || count <= 0 {
		return
	}
	m.listings.WithLabelValues(normalizeLabel(marketplace), normalizeLabel(outcome)).Add(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
