package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vnykmshr/docgate/pkg/scheduling/workerpool"
)

// Task describes a scheduled task.
type Task struct {
	ID       string
	RunAt    time.Time
	Interval time.Duration // Zero for cron tasks
	Cron     string
	Created  time.Time
	Runs     int64
	Skipped  int64
}

// Scheduler runs tasks on fixed intervals or cron expressions.
type Scheduler interface {
	// ScheduleRepeating runs task every interval, starting at the next tick.
	ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error

	// ScheduleCron runs task whenever cronExpr fires. Both five-field
	// expressions and ones with a leading seconds field are accepted, as are
	// descriptors such as "@every 30s".
	ScheduleCron(id string, cronExpr string, task workerpool.Task) error

	// Cancel removes a task and reports whether it existed.
	Cancel(id string) bool

	// List returns the scheduled tasks ordered by next run.
	List() []Task

	// Start begins dispatching due tasks.
	Start() error

	// Stop halts dispatching, cancels the context of running tasks and
	// returns a channel that closes once they have returned.
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Location is used to evaluate cron expressions. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due tasks are looked for. Defaults to 50ms.
	TickInterval time.Duration

	// MaxTasks bounds the number of scheduled tasks. Defaults to 1000.
	MaxTasks int

	// Workers is the number of tasks that may run at once. Defaults to 2.
	Workers int

	Logger *zap.Logger
}

type scheduledTask struct {
	id           string
	task         workerpool.Task
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time

	running int32
	runs    int64
	skipped int64
}

type scheduler struct {
	pool         workerpool.Pool
	location     *time.Location
	tickInterval time.Duration
	maxTasks     int
	cronParser   cron.Parser
	logger       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tasks   map[string]*scheduledTask
	running bool
	stopped bool
	loopWg  sync.WaitGroup
	done    chan struct{}
}

// NewSafe creates a scheduler with its own worker pool.
func NewSafe(cfg Config) (Scheduler, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 50 * time.Millisecond
	}
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &scheduler{
		location:     cfg.Location,
		tickInterval: cfg.TickInterval,
		maxTasks:     cfg.MaxTasks,
		cronParser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		logger:       cfg.Logger,
		tasks:        make(map[string]*scheduledTask),
		done:         make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	pool, err := workerpool.NewWithConfigSafe(workerpool.Config{
		Name:           "scheduler",
		WorkerCount:    cfg.Workers,
		QueueSize:      cfg.Workers,
		OnTaskComplete: s.onComplete,
	})
	if err != nil {
		s.cancel()
		return nil, err
	}
	s.pool = pool

	return s, nil
}

// ValidateCron reports whether cronExpr parses with the scheduler's syntax.
func ValidateCron(cronExpr string) error {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

func (s *scheduler) ScheduleRepeating(id string, task workerpool.Task, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}
	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		runAt:    time.Now(),
		interval: interval,
		created:  time.Now(),
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, task workerpool.Task) error {
	if cronExpr == "" {
		return fmt.Errorf("cron expression cannot be empty")
	}
	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	now := time.Now().In(s.location)
	return s.add(&scheduledTask{
		id:           id,
		task:         task,
		runAt:        schedule.Next(now),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
		created:      now,
	})
}

func (s *scheduler) add(t *scheduledTask) error {
	if t.id == "" {
		return fmt.Errorf("task ID cannot be empty")
	}
	if t.task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.id]; exists {
		return fmt.Errorf("task with ID %q already exists, cancel the existing task first", t.id)
	}
	if len(s.tasks) >= s.maxTasks {
		return fmt.Errorf("cannot schedule task: maximum number of tasks (%d) reached", s.maxTasks)
	}

	s.tasks[t.id] = t
	return nil
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; exists {
		delete(s.tasks, id)
		return true
	}
	return false
}

func (s *scheduler) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, Task{
			ID:       t.id,
			RunAt:    t.runAt,
			Interval: t.interval,
			Cron:     t.cronExpr,
			Created:  t.created,
			Runs:     atomic.LoadInt64(&t.runs),
			Skipped:  atomic.LoadInt64(&t.skipped),
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].RunAt.Before(tasks[j].RunAt)
	})

	return tasks
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler has been stopped")
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.running = true
	s.loopWg.Add(1)
	go s.run()
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return s.done
	}
	s.stopped = true
	s.running = false
	s.mu.Unlock()

	s.cancel()

	go func() {
		s.loopWg.Wait()
		<-s.pool.Shutdown()
		close(s.done)
	}()

	return s.done
}

func (s *scheduler) run() {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.dispatch(now)
		}
	}
}

// dispatch hands due tasks to the pool. A task still running from its
// previous firing is skipped rather than stacked.
func (s *scheduler) dispatch(now time.Time) {
	s.mu.Lock()
	due := make([]*scheduledTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		if now.Before(t.runAt) {
			continue
		}
		due = append(due, t)
		if t.interval > 0 {
			t.runAt = now.Add(t.interval)
		} else {
			t.runAt = t.cronSchedule.Next(now.In(s.location))
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		if !atomic.CompareAndSwapInt32(&t.running, 0, 1) {
			atomic.AddInt64(&t.skipped, 1)
			s.logger.Debug("skipping task still running", zap.String("task", t.id))
			continue
		}
		atomic.AddInt64(&t.runs, 1)

		if err := s.pool.SubmitWithContext(s.ctx, &firing{scheduled: t}); err != nil {
			atomic.StoreInt32(&t.running, 0)
			s.logger.Warn("task dispatch failed", zap.String("task", t.id), zap.Error(err))
		}
	}
}

func (s *scheduler) onComplete(result workerpool.Result) {
	f, ok := result.Task.(*firing)
	if !ok {
		return
	}
	atomic.StoreInt32(&f.scheduled.running, 0)
	if result.Error != nil {
		s.logger.Warn("scheduled task failed",
			zap.String("task", f.scheduled.id),
			zap.Duration("duration", result.Duration),
			zap.Error(result.Error))
	}
}

// firing is one execution of a scheduled task.
type firing struct {
	scheduled *scheduledTask
}

func (f *firing) Execute(ctx context.Context) error {
	return f.scheduled.task.Execute(ctx)
}
