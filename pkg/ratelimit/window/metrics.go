package window

import (
	"context"
	"time"

	"github.com/vnykmshr/docgate/pkg/metrics"
)

const limiterType = "fixed_window"

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a fixed-window limiter that reports to the registry
// described by metricsConfig under the given limiter name.
func NewWithMetrics(config Config, name string, metricsConfig metrics.Config) (Limiter, error) {
	base, err := NewWithConfigSafe(config)
	if err != nil {
		return nil, err
	}

	registry := metricsConfig.Resolve()
	if registry == nil {
		return base, nil
	}

	return Instrument(base, name, registry), nil
}

// Instrument wraps an existing limiter so that it reports to registry.
func Instrument(limiter Limiter, name string, registry *metrics.Registry) *MetricsLimiter {
	ml := &MetricsLimiter{
		limiter:  limiter,
		name:     name,
		registry: registry,
		enabled:  registry != nil,
	}
	ml.observeRemaining()
	return ml
}

// Acquire blocks until a permit is available.
func (ml *MetricsLimiter) Acquire(ctx context.Context) error {
	start := time.Now()

	if ml.enabled {
		ml.registry.RateLimitRequests.WithLabelValues(limiterType, ml.name).Inc()
	}

	err := ml.limiter.Acquire(ctx)

	if ml.enabled {
		ml.registry.RateLimitWaitTime.WithLabelValues(limiterType, ml.name).Observe(time.Since(start).Seconds())
		ml.record(err == nil)
	}

	return err
}

// TryAcquire consumes a permit if one is available now.
func (ml *MetricsLimiter) TryAcquire() bool {
	if ml.enabled {
		ml.registry.RateLimitRequests.WithLabelValues(limiterType, ml.name).Inc()
	}

	ok := ml.limiter.TryAcquire()

	if ml.enabled {
		ml.record(ok)
	}

	return ok
}

// Reserve reports availability without consuming a permit.
func (ml *MetricsLimiter) Reserve() Reservation {
	return ml.limiter.Reserve()
}

// Remaining returns the number of permits left in the current window.
func (ml *MetricsLimiter) Remaining() int {
	remaining := ml.limiter.Remaining()

	if ml.enabled {
		ml.registry.RateLimitRemaining.WithLabelValues(limiterType, ml.name).Set(float64(remaining))
	}

	return remaining
}

// Capacity returns the number of permits per window.
func (ml *MetricsLimiter) Capacity() int {
	return ml.limiter.Capacity()
}

// Window returns the window duration.
func (ml *MetricsLimiter) Window() time.Duration {
	return ml.limiter.Window()
}

// Stats returns a snapshot of the wrapped limiter.
func (ml *MetricsLimiter) Stats() Stats {
	return ml.limiter.Stats()
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled
}

func (ml *MetricsLimiter) record(allowed bool) {
	if allowed {
		ml.registry.RateLimitAllowed.WithLabelValues(limiterType, ml.name).Inc()
	} else {
		ml.registry.RateLimitDenied.WithLabelValues(limiterType, ml.name).Inc()
	}
	ml.observeRemaining()
}

func (ml *MetricsLimiter) observeRemaining() {
	if !ml.enabled {
		return
	}
	ml.registry.RateLimitRemaining.WithLabelValues(limiterType, ml.name).Set(float64(ml.limiter.Remaining()))
}
