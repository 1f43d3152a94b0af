package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, DefaultRegistry is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Registry: nil,
	}
}

// Resolve returns the Registry described by c: nil when disabled,
// DefaultRegistry when no registerer is set, otherwise a new Registry
// registered against c.Registry.
func (c Config) Resolve() *Registry {
	if !c.Enabled {
		return nil
	}
	if c.Registry == nil {
		return DefaultRegistry
	}
	return NewRegistry(c.Registry)
}
