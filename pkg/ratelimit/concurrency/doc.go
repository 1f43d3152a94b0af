/*
Package concurrency bounds how many operations run at the same time.

Unlike the fixed-window limiter, which counts grants per unit of time, a
concurrency limiter counts slots that are currently held; a slot frees up as
soon as its holder calls Release. docgate's intake server uses one to cap the
number of requests parked on the submission client, answering 503 once the
bound is reached instead of letting waiters pile up without limit.

	limiter, err := concurrency.NewSafe(64)
	if err != nil {
		return err
	}

	if !limiter.TryAcquire() {
		return errBusy
	}
	defer limiter.Release()

Acquire blocks until a slot frees up or the context is done. Waiters are
served in arrival order, and TryAcquire never jumps ahead of a queued waiter.
*/
package concurrency
