package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *workerPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context is passed to the task's Execute method. If the pool has a
// TaskTimeout configured, the effective timeout is the minimum of the context
// deadline and TaskTimeout.
func (p *workerPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Held for the whole send so Shutdown cannot close the queue under us.
	// Shutdown closes shutdownCh before taking the write lock, which
	// releases any sender blocked below.
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.isShutdown {
		return fmt.Errorf("cannot submit task: %w", gferrors.ErrClosed)
	}

	// Pre-canceled contexts are rejected deterministically.
	select {
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: %w", ctx.Err())
	default:
	}

	select {
	case p.taskQueue <- queuedTask{task: task, ctx: ctx}:
		atomic.AddInt64(&p.totalSubmitted, 1)
		p.observeQueue()
		return nil
	case <-p.shutdownCh:
		return fmt.Errorf("cannot submit task: %w", gferrors.ErrClosed)
	case <-ctx.Done():
		return fmt.Errorf("cannot submit task: %w", ctx.Err())
	}
}

// Results returns a channel of task results.
func (p *workerPool) Results() <-chan Result {
	return p.resultQueue
}

// Shutdown initiates a graceful shutdown of the pool. Tasks already queued
// still run.
func (p *workerPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		close(p.shutdownCh)

		p.mu.Lock()
		p.isShutdown = true
		close(p.taskQueue)
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			if p.resultQueue != nil {
				close(p.resultQueue)
			}
			close(p.done)
		}()
	})

	return p.done
}

// Size returns the number of workers in the pool.
func (p *workerPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *workerPool) QueueSize() int {
	return len(p.taskQueue)
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *workerPool) TotalSubmitted() int64 {
	return atomic.LoadInt64(&p.totalSubmitted)
}

// TotalCompleted returns the total number of tasks that finished executing.
func (p *workerPool) TotalCompleted() int64 {
	return atomic.LoadInt64(&p.totalCompleted)
}

// run is the main loop for a worker. It exits once the queue is closed and
// drained.
func (p *workerPool) run(id int) {
	defer p.workerWg.Done()

	for qt := range p.taskQueue {
		p.observeQueue()
		result := p.execute(id, qt)
		atomic.AddInt64(&p.totalCompleted, 1)
		p.observeResult(result)

		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(result)
		}
		if p.resultQueue != nil {
			p.resultQueue <- result
		}
	}
}

// execute runs a single task, converting a panic into an error result.
func (p *workerPool) execute(id int, qt queuedTask) (result Result) {
	start := time.Now()
	result = Result{Task: qt.task, WorkerID: id}

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
		result.Duration = time.Since(start)
	}()

	ctx := qt.ctx
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	result.Error = qt.task.Execute(ctx)
	return result
}

func (p *workerPool) observeQueue() {
	if m := p.config.Metrics; m != nil {
		m.WorkerPoolQueued.WithLabelValues(p.config.Name).Set(float64(len(p.taskQueue)))
	}
}

func (p *workerPool) observeResult(result Result) {
	m := p.config.Metrics
	if m == nil {
		return
	}
	if result.Error != nil {
		m.TasksFailed.WithLabelValues(p.config.Name).Inc()
		return
	}
	m.TasksCompleted.WithLabelValues(p.config.Name).Inc()
}
