/*
Package ratelimit groups the limiters used to pace outbound submissions.

  - window: Fixed-window limiter granting at most Capacity permits per Window
  - concurrency: Concurrency limiter for controlling in-flight work

Fixed window:

Windows are aligned to the first acquisition, not to wall-clock boundaries.
A window ends exactly Window after it began and the next one starts on the
first request after that:

	limiter, _ := window.NewSafe(10, time.Second) // 10 per second
	if err := limiter.Acquire(ctx); err != nil {
		// ctx ended before a permit was granted
	}

Blocked callers sleep until the window rolls over and then compete again, so
waiters are not served in arrival order. Acquire honors context cancellation
and an optional MaxWait.

Concurrency:

	slots, _ := concurrency.NewSafe(4)
	if slots.TryAcquire() {
		defer slots.Release()
	}

All limiters are safe for concurrent use and can be wrapped with
Prometheus metrics through NewWithMetrics.
*/
package ratelimit
