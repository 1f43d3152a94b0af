package workerpool_test

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/vnykmshr/docgate/pkg/scheduling/workerpool"
)

// Example demonstrates basic usage of the worker pool
func Example() {
	pool, err := workerpool.NewSafe(3, 10)
	if err != nil {
		fmt.Println(err)
		return
	}

	var processed int32
	for i := 0; i < 5; i++ {
		_ = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
			atomic.AddInt32(&processed, 1)
			return nil
		}))
	}

	<-pool.Shutdown()
	fmt.Println("processed:", atomic.LoadInt32(&processed))

	// Output: processed: 5
}

// Example_collectResults shows draining the results channel until shutdown
// closes it.
func Example_collectResults() {
	pool, _ := workerpool.NewWithConfigSafe(workerpool.Config{
		WorkerCount:    2,
		QueueSize:      4,
		CollectResults: true,
	})

	for i := 0; i < 4; i++ {
		i := i
		_ = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
			if i%2 == 0 {
				return fmt.Errorf("task %d failed", i)
			}
			return nil
		}))
	}
	pool.Shutdown()

	failed := 0
	for result := range pool.Results() {
		if result.Error != nil {
			failed++
		}
	}
	fmt.Println("failed:", failed)

	// Output: failed: 2
}

// Example_invalidConfiguration shows the validation error returned for a
// pool without workers.
func Example_invalidConfiguration() {
	_, err := workerpool.NewSafe(0, 10)
	fmt.Println(err)

	// Output: workerpool: invalid worker_count=0 (must be positive) - value must be greater than 0
}
