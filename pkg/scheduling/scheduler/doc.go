/*
Package scheduler runs tasks on intervals or cron expressions using a worker
pool.

docgate watch uses it to drain the outbox directory on a cron spec:

	s, err := scheduler.NewSafe(scheduler.Config{Logger: logger})
	if err != nil {
		return err
	}

	err = s.ScheduleCron("outbox", "@every 10s", workerpool.TaskFunc(drain))
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}
	defer func() { <-s.Stop() }()

Cron expressions are parsed with github.com/robfig/cron/v3. The classic five
field form, a six field form with leading seconds and descriptors such as
@hourly or @every 1m are all accepted.

A firing is skipped when the previous run of the same task has not returned,
so a slow drain never overlaps with the next one. Stop cancels the context
passed to running tasks and waits for them to return.
*/
package scheduler
