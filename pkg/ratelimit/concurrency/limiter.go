package concurrency

import (
	"context"
	"sync"

	"github.com/vnykmshr/docgate/pkg/common/errors"
)

// Limiter bounds the number of operations that may be in progress at once.
// It is a counting semaphore with context-aware waiting.
type Limiter interface {
	// TryAcquire takes a slot if one is free and reports whether it did.
	// It never blocks.
	TryAcquire() bool

	// Acquire blocks until a slot is free or ctx is done.
	// On error no slot is held.
	Acquire(ctx context.Context) error

	// Release returns a slot taken by TryAcquire or Acquire.
	// It panics if more slots are released than were taken.
	Release()

	// Capacity returns the maximum number of concurrent operations.
	Capacity() int

	// Available returns the number of free slots.
	Available() int

	// InUse returns the number of slots currently held.
	InUse() int
}

// Config holds configuration options for creating a new concurrency Limiter.
type Config struct {
	// Capacity is the maximum number of concurrent operations allowed.
	Capacity int
}

// concurrencyLimiter implements Limiter. Waiters are woken in arrival order.
type concurrencyLimiter struct {
	mu       sync.Mutex
	capacity int
	inUse    int
	waiters  []chan struct{}
}

// NewSafe creates a concurrency limiter with the given capacity.
func NewSafe(capacity int) (Limiter, error) {
	return NewWithConfigSafe(Config{Capacity: capacity})
}

// NewWithConfigSafe creates a concurrency limiter, returning a validation
// error for a non-positive capacity.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if config.Capacity <= 0 {
		return nil, errors.NewValidationError("concurrency", "capacity", config.Capacity, "capacity must be positive").
			WithHint("capacity determines how many concurrent operations are allowed")
	}

	return &concurrencyLimiter{capacity: config.Capacity}, nil
}
