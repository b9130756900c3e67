package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// SummaryCacheLookups counts /pnl cache results (hit, miss, bypass).
	SummaryCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpnl",
			Subsystem: "api",
			Name:      "summary_cache_total",
			Help:      "Summary cache lookups by result",
		},
		[]string{"result"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpnl",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Analysis API errors by endpoint and kind",
		},
		[]string{"endpoint", "kind"},
	)

	JobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "walletpnl",
			Subsystem: "api",
			Name:      "jobs_submitted_total",
			Help:      "Async analysis jobs accepted",
		},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletpnl",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		},
		[]string{"endpoint"},
	)

	// JobQueueDepth is refreshed whenever the queue stats endpoint is read.
	JobQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "walletpnl",
			Subsystem: "jobs",
			Name:      "queue_depth",
			Help:      "Job queue messages by state (pending, retry, dead)",
		},
		[]string{"state"},
	)

	StreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "walletpnl",
			Subsystem: "api",
			Name:      "progress_streams",
			Help:      "Open websocket progress streams",
		},
	)
)

// Register adds the API collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(SummaryCacheLookups, APIErrors, JobsSubmitted, RateLimited, JobQueueDepth, StreamConnections)
	})
}
