package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/aristath/briefd/internal/capability"
	"github.com/aristath/briefd/internal/config"
)

// RunFunc executes one task invocation. The scheduler treats it as a black
// box; the run logs and records its own outcome.
type RunFunc func(ctx context.Context, task config.Task, source string) error

const defaultTick = 30 * time.Second

// job is one scheduled task plus its firing state. All fields past task are
// guarded by the scheduler mutex.
type job struct {
	task config.Task

	cron  *CronExpr     // cron schedules
	every time.Duration // interval schedules
	at    time.Time     // one-shot schedules

	next     time.Time // next due instant for interval jobs
	lastFire time.Time // last cron dispatch, dedups within a matching minute
	done     bool      // one-shot already fired
}

// due reports whether the job should fire at now. Interval jobs arm
// themselves on the first call and fire one interval later.
func (j *job) due(now time.Time) bool {
	switch {
	case j.cron != nil:
		return j.cron.Matches(now) && !sameMinute(j.lastFire, now)
	case j.every > 0:
		if j.next.IsZero() {
			j.next = now.Add(j.every)
			return false
		}
		return !now.Before(j.next)
	default:
		return !j.done && !now.Before(j.at)
	}
}

// markFired records a dispatch at now.
func (j *job) markFired(now time.Time) {
	switch {
	case j.cron != nil:
		j.lastFire = now
	case j.every > 0:
		j.next = now.Add(j.every)
	default:
		j.done = true
	}
}

// markSkipped records a fire that was dropped because the task was still in
// flight. Interval jobs move on to the next interval; a one-shot stays
// pending so it eventually runs.
func (j *job) markSkipped(now time.Time) {
	if j.every > 0 {
		j.next = now.Add(j.every)
	}
}

func sameMinute(a, b time.Time) bool {
	return !a.IsZero() && a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// Scheduler fires schedule-driven tasks from one polling goroutine.
type Scheduler struct {
	logger *log.Logger
	run    RunFunc
	guard  *TaskGuard
	sem    *semaphore.Weighted

	tick time.Duration
	now  func() time.Time

	mu   sync.Mutex
	jobs []*job

	stopOnce sync.Once
	stopCh   chan struct{}
	tickWg   sync.WaitGroup // the polling goroutine
	runWg    sync.WaitGroup // launched runs
}

// New builds a scheduler over the schedule-driven tasks. maxConcurrent caps
// simultaneous runs across all tasks. Cron expressions are parsed here, so a
// bad one fails startup instead of silently never firing.
func New(tasks []config.Task, run RunFunc, guard *TaskGuard, logger *log.Logger, maxConcurrent int) (*Scheduler, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	s := &Scheduler{
		logger: logger,
		run:    run,
		guard:  guard,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		tick:   defaultTick,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	for _, t := range tasks {
		j, err := buildJob(t)
		if err != nil {
			return nil, err
		}
		if j != nil {
			s.jobs = append(s.jobs, j)
		}
	}
	return s, nil
}

func buildJob(t config.Task) (*job, error) {
	if t.Schedule == nil {
		return nil, nil
	}

	j := &job{task: t}
	switch {
	case t.Schedule.Cron != "":
		expr, err := ParseCron(t.Schedule.Cron)
		if err != nil {
			return nil, &capability.ConfigError{Task: t.Name, Field: "schedule.cron", Reason: err.Error()}
		}
		j.cron = expr
	case t.Schedule.Every != "":
		d, err := t.Schedule.Interval()
		if err != nil || d <= 0 {
			return nil, &capability.ConfigError{Task: t.Name, Field: "schedule.every", Reason: "not a positive duration"}
		}
		j.every = d
	case t.Schedule.At != "":
		at, err := t.Schedule.RunAt()
		if err != nil {
			return nil, &capability.ConfigError{Task: t.Name, Field: "schedule.at", Reason: "not an RFC3339 timestamp"}
		}
		j.at = at
	default:
		return nil, &capability.ConfigError{Task: t.Name, Field: "schedule", Reason: "empty schedule"}
	}
	return j, nil
}

// Start launches the polling loop. It returns immediately; Stop ends the
// loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.tickWg.Add(1)
	go func() {
		defer s.tickWg.Done()

		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		s.logger.Printf("scheduler started (%d tasks, tick %s)", len(s.jobs), s.tick)

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.dispatchDue(ctx, s.now())
			}
		}
	}()
}

// dispatchDue fires every job due at now and returns how many runs it
// started. A job whose task is still in flight is skipped, not queued.
func (s *Scheduler) dispatchDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := 0
	for _, j := range s.jobs {
		if !j.due(now) {
			continue
		}
		if !s.guard.TryBegin(j.task.Name) {
			s.logger.Printf("WARNING: task %q: previous run still in flight, skipping this fire", j.task.Name)
			j.markSkipped(now)
			continue
		}
		j.markFired(now)
		started++
		s.launch(ctx, j.task)
	}
	return started
}

// launch runs the task in its own goroutine, holding its guard slot for the
// duration and a semaphore slot while the run executes.
func (s *Scheduler) launch(ctx context.Context, task config.Task) {
	s.runWg.Add(1)
	go func() {
		defer s.runWg.Done()
		defer s.guard.End(task.Name)

		if err := s.sem.Acquire(ctx, 1); err != nil {
			s.logger.Printf("WARNING: task %q: scheduled run abandoned: %v", task.Name, err)
			return
		}
		defer s.sem.Release(1)

		_ = s.run(ctx, task, "schedule")
	}()
}

// Stop ends the polling loop and waits up to timeout for in-flight runs to
// finish. Safe to call more than once.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.tickWg.Wait()

	done := make(chan struct{})
	go func() {
		s.runWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Printf("scheduler stopped")
	case <-time.After(timeout):
		s.logger.Printf("WARNING: scheduler shutdown timed out, runs still in flight")
	}
}
