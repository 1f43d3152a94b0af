package window

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/common/validation"
)

// Limiter grants at most Capacity permits per fixed window of length Window.
// All methods are safe for concurrent use.
type Limiter interface {
	// Acquire blocks until a permit is available and consumes it.
	// It fails with a *WaitError if ctx is done or the configured MaxWait
	// elapses first; in that case no permit is consumed.
	Acquire(ctx context.Context) error

	// TryAcquire consumes a permit if one is available now. It does not block.
	TryAcquire() bool

	// Reserve reports whether a permit is available now and, if not, how long
	// until the current window ends. It does not consume a permit.
	Reserve() Reservation

	// Remaining returns the number of permits left in the current window.
	Remaining() int

	// Capacity returns the number of permits granted per window.
	Capacity() int

	// Window returns the window duration.
	Window() time.Duration

	// Stats returns a snapshot of the limiter state.
	Stats() Stats
}

// Reservation is the answer to a Reserve call.
type Reservation struct {
	// OK is true when a permit is available immediately.
	OK bool

	// Delay is the time until the current window ends. Zero when OK.
	Delay time.Duration

	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// Stats is a point-in-time snapshot of a Limiter.
//
// Count and Remaining describe the window a caller arriving now would land
// in: if the stored window has already elapsed they report an empty window
// even though the reset happens lazily on the next acquisition. WindowStart
// and ResetAt always describe the stored window.
type Stats struct {
	Capacity    int
	Window      time.Duration
	Count       int
	Remaining   int
	WindowStart time.Time
	ResetAt     time.Time

	// Granted counts permits handed out since construction.
	Granted int64
	// Waited counts granted permits whose caller had to block first.
	Waited int64
	// Rejected counts calls that returned without a permit.
	Rejected int64
}

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Capacity is the number of permits per window. Must be positive.
	Capacity int

	// Window is the length of a counting window. Must be positive.
	Window time.Duration

	// MaxWait bounds how long Acquire may block. Zero means no bound
	// beyond the caller's context.
	MaxWait time.Duration

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// WaitError is returned by Acquire when the caller stopped waiting before a
// permit was granted. It matches errors.ErrLimitExceeded, the context error
// that ended the wait, and errors.ErrTimeout when that was a deadline.
type WaitError struct {
	Waited   time.Duration
	Cause    error
	TimedOut bool
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("window: no permit after waiting %v: %v", e.Waited, e.Cause)
}

func (e *WaitError) Unwrap() []error {
	errs := []error{errors.ErrLimitExceeded, e.Cause}
	if e.TimedOut {
		errs = append(errs, errors.ErrTimeout)
	}
	return errs
}

// state is the only mutable admission state. Both fields change together
// under fixedWindow.mu.
type state struct {
	count       int
	windowStart time.Time
}

// fixedWindow implements the Limiter interface with a fixed-window counter.
type fixedWindow struct {
	capacity int
	window   time.Duration
	maxWait  time.Duration
	clock    Clock

	mu       sync.Mutex
	st       state
	granted  int64
	waited   int64
	rejected int64
}

// NewSafe creates a limiter granting capacity permits per window.
// Non-positive arguments yield a *errors.ValidationError.
func NewSafe(capacity int, window time.Duration) (Limiter, error) {
	return NewWithConfigSafe(Config{
		Capacity: capacity,
		Window:   window,
		Clock:    SystemClock{},
	})
}

// NewWithConfigSafe creates a limiter from config, returning a
// *errors.ValidationError if the configuration is invalid.
func NewWithConfigSafe(config Config) (Limiter, error) {
	if err := validation.ValidatePositive("window", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositiveDuration("window", "window", config.Window); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("window", "max_wait", config.MaxWait); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &fixedWindow{
		capacity: config.Capacity,
		window:   config.Window,
		maxWait:  config.MaxWait,
		clock:    config.Clock,
		st:       state{windowStart: config.Clock.Now()},
	}, nil
}
