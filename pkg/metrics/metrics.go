// Package metrics provides Prometheus instrumentation for docgate components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "docgate"

// Registry holds all metric instances for docgate components.
type Registry struct {
	// Rate Limiting Metrics
	RateLimitRequests   *prometheus.CounterVec
	RateLimitAllowed    *prometheus.CounterVec
	RateLimitDenied     *prometheus.CounterVec
	RateLimitWaitTime   *prometheus.HistogramVec
	RateLimitRemaining  *prometheus.GaugeVec
	ConcurrencyActive   *prometheus.GaugeVec
	ConcurrencyRejected *prometheus.CounterVec

	// Submission Metrics
	Submissions       *prometheus.CounterVec
	TransportDuration *prometheus.HistogramVec
	InFlight          *prometheus.GaugeVec

	// Worker Pool Metrics
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolQueued *prometheus.GaugeVec
	TasksCompleted   *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by docgate components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// It panics if the metrics are already registered with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		RateLimitRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "requests_total",
				Help:      "Total number of permit requests",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "allowed_total",
				Help:      "Total number of granted permits",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "denied_total",
				Help:      "Total number of permit requests that were abandoned or refused",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a permit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limiter_type", "limiter_name"},
		),

		RateLimitRemaining: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "permits_remaining",
				Help:      "Number of permits left in the current window",
			},
			[]string{"limiter_type", "limiter_name"},
		),

		ConcurrencyActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "concurrency",
				Name:      "active",
				Help:      "Number of active concurrent operations",
			},
			[]string{"limiter_name"},
		),

		ConcurrencyRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "concurrency",
				Name:      "rejected_total",
				Help:      "Number of operations rejected because no slot was free",
			},
			[]string{"limiter_name"},
		),

		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "total",
				Help:      "Document submissions by outcome",
			},
			[]string{"client_name", "outcome"},
		),

		TransportDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "transport_duration_seconds",
				Help:      "Time spent in the remote call",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client_name"},
		),

		InFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "submission",
				Name:      "in_flight",
				Help:      "Admitted submissions whose remote call has not returned",
			},
			[]string{"client_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			[]string{"pool_name"},
		),
	}
}
