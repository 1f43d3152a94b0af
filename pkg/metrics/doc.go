// Package metrics provides Prometheus instrumentation for docgate components.
//
// The Registry groups the collectors used by the fixed-window limiter, the
// submission client, the intake server and the worker pool. A process-wide
// DefaultRegistry is registered with prometheus.DefaultRegisterer; tests and
// embedders that need isolation build their own:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	limiter, err := window.NewWithMetrics(window.Config{
//		Capacity: 10,
//		Window:   time.Second,
//	}, "registration_api", metrics.Config{Enabled: true, Registry: reg})
//
// Expose the metrics over HTTP with promhttp:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
