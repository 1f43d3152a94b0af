/*
Package window provides a fixed-window rate limiter with blocking admission.

A Limiter hands out at most Capacity permits per window of length Window.
The window starts at construction and restarts lazily: the first caller to
arrive at or after windowStart+Window resets the counter to zero and starts a
new window at its own arrival time, whether or not the previous window was
ever filled.

Basic usage:

	limiter, err := window.NewSafe(3, time.Second) // 3 permits per second
	if err != nil {
		log.Fatal(err)
	}

	if err := limiter.Acquire(ctx); err != nil {
		// ctx was canceled or MaxWait elapsed; no permit was consumed
		return err
	}
	// send the request

Admission:

Each attempt runs under a single mutex guarding {count, windowStart}:

  - if the window has elapsed, reset count to 0 and windowStart to now
  - if count < Capacity, take a permit and return
  - otherwise release the mutex, sleep until the window ends, and try again

A caller woken at the end of a window re-validates instead of assuming the
fresh window is its own, so waiters that lose the race to other waiters or
new arrivals simply wait for the next window. Waiters are not served in FIFO
order.

Failure:

Acquire fails only when the caller stops waiting, through its context or
Config.MaxWait. The returned *WaitError matches errors.ErrLimitExceeded and
the context error; a deadline additionally matches errors.ErrTimeout. A failed
Acquire never consumes a permit.

Permits are never returned. A permit consumed by a request that later fails
stays consumed for the rest of its window.
*/
package window
