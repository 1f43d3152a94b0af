package concurrency

import (
	"context"

	"github.com/vnykmshr/docgate/pkg/metrics"
)

// MetricsLimiter wraps a concurrency Limiter and reports held slots and
// rejections to a metrics Registry.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a concurrency limiter that records into the registry
// resolved from metricsConfig. A disabled config returns the bare limiter.
func NewWithMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	registry := metricsConfig.Resolve()
	if registry == nil {
		return base, nil
	}

	ml := &MetricsLimiter{limiter: base, name: name, registry: registry}
	ml.observe()
	return ml, nil
}

// TryAcquire takes a slot without blocking, counting a rejection on failure.
func (ml *MetricsLimiter) TryAcquire() bool {
	ok := ml.limiter.TryAcquire()
	if !ok {
		ml.registry.ConcurrencyRejected.WithLabelValues(ml.name).Inc()
	}
	ml.observe()
	return ok
}

// Acquire blocks until a slot is available.
func (ml *MetricsLimiter) Acquire(ctx context.Context) error {
	err := ml.limiter.Acquire(ctx)
	if err != nil {
		ml.registry.ConcurrencyRejected.WithLabelValues(ml.name).Inc()
	}
	ml.observe()
	return err
}

// Release returns a slot.
func (ml *MetricsLimiter) Release() {
	ml.limiter.Release()
	ml.observe()
}

// Capacity returns the maximum number of concurrent operations allowed.
func (ml *MetricsLimiter) Capacity() int { return ml.limiter.Capacity() }

// Available returns the number of slots currently free.
func (ml *MetricsLimiter) Available() int { return ml.limiter.Available() }

// InUse returns the number of slots currently held.
func (ml *MetricsLimiter) InUse() int { return ml.limiter.InUse() }

func (ml *MetricsLimiter) observe() {
	ml.registry.ConcurrencyActive.WithLabelValues(ml.name).Set(float64(ml.limiter.InUse()))
}
