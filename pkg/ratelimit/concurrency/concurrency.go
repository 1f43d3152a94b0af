package concurrency

import (
	"context"
)

// TryAcquire takes a slot without blocking.
func (cl *concurrencyLimiter) TryAcquire() bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.inUse < cl.capacity && len(cl.waiters) == 0 {
		cl.inUse++
		return true
	}
	return false
}

// Acquire blocks until a slot is available.
func (cl *concurrencyLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	cl.mu.Lock()
	if cl.inUse < cl.capacity && len(cl.waiters) == 0 {
		cl.inUse++
		cl.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	cl.waiters = append(cl.waiters, ready)
	cl.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		cl.mu.Lock()
		if cl.removeWaiter(ready) {
			cl.mu.Unlock()
			return ctx.Err()
		}
		cl.mu.Unlock()

		// Release handed us the slot while we were giving up; pass it on.
		cl.Release()
		return ctx.Err()
	}
}

// Release returns one slot and hands it to the oldest waiter, if any.
func (cl *concurrencyLimiter) Release() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.inUse <= 0 {
		panic("concurrency: released more permits than acquired")
	}

	if len(cl.waiters) > 0 {
		// The slot moves to the waiter; inUse is unchanged.
		next := cl.waiters[0]
		cl.waiters = cl.waiters[1:]
		close(next)
		return
	}
	cl.inUse--
}

// Capacity returns the maximum number of concurrent operations allowed.
func (cl *concurrencyLimiter) Capacity() int {
	return cl.capacity
}

// Available returns the number of slots currently free.
func (cl *concurrencyLimiter) Available() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.capacity - cl.inUse
}

// InUse returns the number of slots currently held.
func (cl *concurrencyLimiter) InUse() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.inUse
}

// removeWaiter drops ready from the queue and reports whether it was still
// queued. Must be called with cl.mu held.
func (cl *concurrencyLimiter) removeWaiter(ready chan struct{}) bool {
	for i, w := range cl.waiters {
		if w == ready {
			cl.waiters = append(cl.waiters[:i], cl.waiters[i+1:]...)
			return true
		}
	}
	return false
}
