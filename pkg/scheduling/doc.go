/*
Package scheduling provides the task execution primitives behind batch
submission and outbox draining.

  - workerpool: Fixed worker pool for concurrent task execution
  - scheduler: Interval and cron-based repeating tasks

Worker Pool:

	pool, _ := workerpool.NewSafe(4, 100) // 4 workers, queue size 100
	defer func() { <-pool.Shutdown() }()

	pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return nil
	}))

Task Scheduler:

	sched, _ := scheduler.NewSafe(scheduler.Config{})
	sched.ScheduleCron("outbox", "@every 10s", task)
	sched.Start()
	defer func() { <-sched.Stop() }()

Both components integrate with context for cancellation.
*/
package scheduling
