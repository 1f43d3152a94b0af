package workerpool

import (
	"context"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/common/validation"
	"github.com/vnykmshr/docgate/pkg/metrics"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a worker pool that can execute tasks concurrently.
type Pool interface {
	// Submit adds a task to the pool for execution.
	// Returns an error if the pool is shut down.
	Submit(task Task) error

	// SubmitWithContext adds a task, giving up if ctx is done before the
	// task could be queued. ctx is also passed to the task's Execute.
	SubmitWithContext(ctx context.Context, task Task) error

	// Results returns a channel of task results, or nil when the pool was
	// built without Config.CollectResults. The channel is closed once
	// shutdown completes.
	Results() <-chan Result

	// Shutdown stops accepting tasks, lets queued tasks finish and returns a
	// channel that closes when every worker has exited.
	Shutdown() <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the current number of queued tasks waiting for execution.
	QueueSize() int

	// TotalSubmitted returns the total number of tasks submitted to the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks completed by the pool.
	TotalCompleted() int64
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name labels the pool's metrics.
	Name string

	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the number of tasks that can wait for a worker.
	// Zero makes Submit hand tasks directly to an idle worker.
	QueueSize int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout.
	TaskTimeout time.Duration

	// CollectResults makes results available on Results(). The channel is
	// buffered to QueueSize+WorkerCount; callers must drain it.
	CollectResults bool

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(result Result)

	// Metrics receives pool metrics when non-nil.
	Metrics *metrics.Registry
}

// workerPool implements the Pool interface.
type workerPool struct {
	config Config

	taskQueue    chan queuedTask
	resultQueue  chan Result
	shutdownCh   chan struct{}
	done         chan struct{}
	shutdownOnce sync.Once

	mu             sync.RWMutex
	isShutdown     bool
	totalSubmitted int64
	totalCompleted int64

	workerWg sync.WaitGroup
}

type queuedTask struct {
	task Task
	ctx  context.Context
}

// NewSafe creates a worker pool with the given number of workers and queue size.
func NewSafe(workerCount, queueSize int) (Pool, error) {
	return NewWithConfigSafe(Config{
		WorkerCount: workerCount,
		QueueSize:   queueSize,
	})
}

// NewWithConfigSafe creates a worker pool, returning a validation error for
// a non-positive worker count or negative queue size.
func NewWithConfigSafe(config Config) (Pool, error) {
	if err := validation.ValidatePositive("workerpool", "worker_count", config.WorkerCount); err != nil {
		return nil, err
	}
	if config.QueueSize < 0 {
		return nil, gferrors.NewValidationError("workerpool", "queue_size", config.QueueSize, "cannot be negative").
			WithHint("use 0 for direct hand-off to idle workers")
	}
	if err := validation.ValidateNonNegativeDuration("workerpool", "task_timeout", config.TaskTimeout); err != nil {
		return nil, err
	}

	pool := &workerPool{
		config:     config,
		taskQueue:  make(chan queuedTask, config.QueueSize),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
	if config.CollectResults {
		pool.resultQueue = make(chan Result, config.QueueSize+config.WorkerCount)
	}

	for i := 0; i < config.WorkerCount; i++ {
		pool.workerWg.Add(1)
		go pool.run(i)
	}

	if m := config.Metrics; m != nil {
		m.WorkerPoolSize.WithLabelValues(config.Name).Set(float64(config.WorkerCount))
	}

	return pool, nil
}
