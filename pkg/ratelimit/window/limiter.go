package window

import (
	"context"
	"time"

	gfcontext "github.com/vnykmshr/docgate/pkg/common/context"
)

// Acquire blocks until a permit is available.
func (fw *fixedWindow) Acquire(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := gfcontext.WithMaxWait(ctx, fw.maxWait)
	defer cancel()

	start := fw.clock.Now()
	blocked := false

	for {
		if gfcontext.IsCanceled(ctx) {
			return fw.abandon(ctx, start)
		}

		wait, ok := fw.attempt(blocked)
		if ok {
			return nil
		}

		// The window is full. Sleep until it ends, then compete again:
		// other waiters or new arrivals may fill the fresh window first.
		blocked = true
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fw.abandon(ctx, start)
		}
	}
}

// TryAcquire consumes a permit if one is available now.
func (fw *fixedWindow) TryAcquire() bool {
	if _, ok := fw.attempt(false); ok {
		return true
	}

	fw.mu.Lock()
	fw.rejected++
	fw.mu.Unlock()
	return false
}

// Reserve reports availability without consuming a permit.
func (fw *fixedWindow) Reserve() Reservation {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	now := fw.clock.Now()

	count, resetAt := fw.view(now)
	if count < fw.capacity {
		return Reservation{OK: true, ResetAt: resetAt}
	}
	return Reservation{OK: false, Delay: resetAt.Sub(now), ResetAt: resetAt}
}

// Remaining returns the number of permits left in the current window.
func (fw *fixedWindow) Remaining() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	now := fw.clock.Now()

	count, _ := fw.view(now)
	return fw.capacity - count
}

// Capacity returns the number of permits per window.
func (fw *fixedWindow) Capacity() int {
	return fw.capacity
}

// Window returns the window duration.
func (fw *fixedWindow) Window() time.Duration {
	return fw.window
}

// Stats returns a snapshot of the limiter state.
func (fw *fixedWindow) Stats() Stats {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	now := fw.clock.Now()

	count, _ := fw.view(now)
	return Stats{
		Capacity:    fw.capacity,
		Window:      fw.window,
		Count:       count,
		Remaining:   fw.capacity - count,
		WindowStart: fw.st.windowStart,
		ResetAt:     fw.st.windowStart.Add(fw.window),
		Granted:     fw.granted,
		Waited:      fw.waited,
		Rejected:    fw.rejected,
	}
}

// attempt makes one admission decision. The clock is read under fw.mu so
// that now never precedes a windowStart set by another caller. It returns
// true if a permit was consumed; otherwise it returns how long until the
// current window ends.
func (fw *fixedWindow) attempt(blocked bool) (time.Duration, bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	now := fw.clock.Now()

	windowEnd := fw.st.windowStart.Add(fw.window)
	if !now.Before(windowEnd) {
		fw.st = state{count: 0, windowStart: now}
		windowEnd = now.Add(fw.window)
	}

	if fw.st.count < fw.capacity {
		fw.st.count++
		fw.granted++
		if blocked {
			fw.waited++
		}
		return 0, true
	}

	return windowEnd.Sub(now), false
}

// view returns the count and window end a caller arriving at now would see,
// without rolling the stored window over. Must be called with fw.mu held.
func (fw *fixedWindow) view(now time.Time) (int, time.Time) {
	windowEnd := fw.st.windowStart.Add(fw.window)
	if !now.Before(windowEnd) {
		return 0, now.Add(fw.window)
	}
	return fw.st.count, windowEnd
}

// abandon records an Acquire that ended with ctx. State is left untouched.
func (fw *fixedWindow) abandon(ctx context.Context, start time.Time) error {
	fw.mu.Lock()
	fw.rejected++
	fw.mu.Unlock()

	return &WaitError{
		Waited:   fw.clock.Now().Sub(start),
		Cause:    ctx.Err(),
		TimedOut: gfcontext.IsTimedOut(ctx),
	}
}
