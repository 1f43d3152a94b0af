// Package context holds small helpers around the standard context package.
package context

import (
	"context"
	"time"
)

// WithMaxWait bounds parent by d. A non-positive d leaves parent unbounded
// and the returned CancelFunc is a no-op.
func WithMaxWait(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, d)
}

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}
