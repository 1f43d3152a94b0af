package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/docgate/internal/testutil"
	"github.com/vnykmshr/docgate/pkg/scheduling/workerpool"
)

func mustNewScheduler(t *testing.T) Scheduler {
	t.Helper()
	s, err := NewSafe(Config{TickInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { <-s.Stop() })
	return s
}

func TestScheduleRepeating(t *testing.T) {
	s := mustNewScheduler(t)

	var runs int32
	err := s.ScheduleRepeating("tick", workerpool.TaskFunc(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}), 10*time.Millisecond)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduleCron(t *testing.T) {
	s := mustNewScheduler(t)

	var runs int32
	err := s.ScheduleCron("drain", "@every 1s", workerpool.TaskFunc(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	testutil.AssertNoError(t, err)

	tasks := s.List()
	testutil.AssertEqual(t, len(tasks), 1)
	testutil.AssertEqual(t, tasks[0].Cron, "@every 1s")
	testutil.AssertEqual(t, tasks[0].RunAt.After(time.Now()), true)

	testutil.AssertNoError(t, s.Start())
	testutil.WaitForInt32(t, &runs, 1, 3*time.Second)
}

func TestScheduleCronValidation(t *testing.T) {
	s := mustNewScheduler(t)
	task := workerpool.TaskFunc(func(ctx context.Context) error { return nil })

	testutil.AssertError(t, s.ScheduleCron("a", "", task))
	testutil.AssertError(t, s.ScheduleCron("b", "not a cron", task))
	testutil.AssertNoError(t, s.ScheduleCron("c", "*/5 * * * *", task))
	testutil.AssertNoError(t, s.ScheduleCron("d", "*/10 * * * * *", task))
	testutil.AssertError(t, s.ScheduleCron("c", "@hourly", task))
	testutil.AssertError(t, s.ScheduleCron("", "@hourly", task))
	testutil.AssertError(t, s.ScheduleCron("e", "@hourly", nil))

	testutil.AssertNoError(t, ValidateCron("@every 30s"))
	testutil.AssertError(t, ValidateCron("61 * * * *"))
}

func TestOverlappingRunsAreSkipped(t *testing.T) {
	s := mustNewScheduler(t)

	release := make(chan struct{})
	var runs int32
	err := s.ScheduleRepeating("slow", workerpool.TaskFunc(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}), 5*time.Millisecond)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, func() bool { return s.List()[0].Skipped >= 2 }, time.Second, 5*time.Millisecond)
	testutil.AssertEqual(t, atomic.LoadInt32(&runs), int32(1))
	close(release)
}

func TestCancel(t *testing.T) {
	s := mustNewScheduler(t)
	task := workerpool.TaskFunc(func(ctx context.Context) error { return nil })

	testutil.AssertNoError(t, s.ScheduleRepeating("x", task, time.Hour))
	testutil.AssertEqual(t, s.Cancel("x"), true)
	testutil.AssertEqual(t, s.Cancel("x"), false)
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestStopCancelsRunningTasks(t *testing.T) {
	s, err := NewSafe(Config{TickInterval: 5 * time.Millisecond})
	testutil.AssertNoError(t, err)

	started := make(chan struct{})
	var canceled int32
	err = s.ScheduleRepeating("long", workerpool.TaskFunc(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		atomic.StoreInt32(&canceled, 1)
		return ctx.Err()
	}), time.Hour)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())

	<-started
	select {
	case <-s.Stop():
	case <-time.After(time.Second):
		t.Fatal("stop did not complete")
	}
	testutil.AssertEqual(t, atomic.LoadInt32(&canceled), int32(1))

	testutil.AssertError(t, s.Start())
	// Stop is idempotent.
	<-s.Stop()
}

func TestFailedTaskKeepsSchedule(t *testing.T) {
	s := mustNewScheduler(t)

	var runs int32
	err := s.ScheduleRepeating("flaky", workerpool.TaskFunc(func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return errors.New("boom")
	}), 5*time.Millisecond)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Start())

	testutil.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, time.Second, 5*time.Millisecond)
}
