/*
Package workerpool runs tasks on a fixed number of worker goroutines.

docgate uses it to fan a batch of document submissions out to a bounded
number of concurrent callers of the submission client. The rate limiter still
decides when each submission may leave the process; the pool only caps how
many goroutines are waiting on it.

Basic usage:

	pool, err := workerpool.NewSafe(4, 100) // 4 workers, queue size 100
	if err != nil {
		return err
	}

	err = pool.Submit(workerpool.TaskFunc(func(ctx context.Context) error {
		return nil
	}))

	<-pool.Shutdown() // queued tasks finish before the channel closes

Results:

Results are reported through Config.OnTaskComplete, and also on Results()
when Config.CollectResults is set. The results channel is buffered to
QueueSize+WorkerCount and delivery blocks, so a caller that collects results
must drain the channel until it is closed by Shutdown.

Cancellation:

SubmitWithContext returns early when its context is done before the task is
queued. The same context is handed to Execute, optionally bounded by
Config.TaskTimeout. A panicking task is reported as a failed Result carrying
the stack trace; the worker keeps running.

Shutdown:

Shutdown stops accepting new tasks, lets already queued tasks run and returns
a channel that closes once every worker has exited. Submit after Shutdown
returns an error wrapping errors.ErrClosed.
*/
package workerpool
