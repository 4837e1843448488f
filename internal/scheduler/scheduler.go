// Package scheduler owns the polling loop around the job core: it
// ticks on a fixed cadence, asks the due-checker which jobs should
// fire, and hands due jobs to the executor. Each job is protected by a
// per-job mutex to prevent parallel execution of the same job.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flemzord/jobkit/internal/history"
	"github.com/flemzord/jobkit/internal/job"
	"github.com/flemzord/jobkit/internal/metrics"
)

// Sentinel errors for scheduler lifecycle and lookup.
var (
	ErrAlreadyStarted = errors.New("scheduler: already started")
	ErrNotStarted     = errors.New("scheduler: not started")
	ErrUnknownJob     = errors.New("scheduler: unknown job")
)

// TimestampWriter records a job's execution time into its
// last-execution file.
type TimestampWriter interface {
	WriteTimestamp(path string, t time.Time) error
}

// Config holds scheduler collaborators and tuning.
type Config struct {
	Checker  job.DueChecker
	Executor *job.Executor

	// Timestamps records last-execution files after each attempt.
	// Required when any registered job uses a last-execution file.
	Timestamps TimestampWriter

	History *history.Store     // nil = runs are not recorded
	Metrics *metrics.Collector // nil = no metrics

	Interval time.Duration    // default 1m
	Logger   *slog.Logger
	Now      func() time.Time // injectable for testing
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Scheduler polls registered jobs. Jobs must be registered before
// Start.
type Scheduler struct {
	cfg Config

	mu     sync.Mutex
	jobs   []*job.Job
	names  map[string]struct{}
	locks  map[string]*sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		cfg:   cfg.withDefaults(),
		names: make(map[string]struct{}),
		locks: make(map[string]*sync.Mutex),
	}
}

// Register adds a job. Returns an error if a job with the same name is
// already registered.
func (s *Scheduler) Register(j *job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if name == "" {
		return errors.New("scheduler: job has no name")
	}
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("scheduler: duplicate job name %q", name)
	}

	s.names[name] = struct{}{}
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Replace swaps the entire job set, validating names the same way
// Register does. Locks of surviving jobs are kept so an in-flight run
// still blocks its next tick. The old set stays in place when the new
// one is invalid.
func (s *Scheduler) Replace(jobs []*job.Job) error {
	names := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		name := j.Name()
		if name == "" {
			return errors.New("scheduler: job has no name")
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("scheduler: duplicate job name %q", name)
		}
		names[name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	locks := make(map[string]*sync.Mutex, len(jobs))
	for name := range names {
		if lock, ok := s.locks[name]; ok {
			locks[name] = lock
		} else {
			locks[name] = &sync.Mutex{}
		}
	}

	s.jobs = append([]*job.Job(nil), jobs...)
	s.names = names
	s.locks = locks
	return nil
}

// Jobs returns a snapshot of the registered jobs in registration order.
func (s *Scheduler) Jobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Start begins the polling loop. Returns ErrAlreadyStarted if called
// twice.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)

	// The loop itself is tracked in wg: every per-job Add happens
	// before the loop's Done, so Stop's Wait cannot return while a
	// just-launched run is untracked.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()

	s.cfg.Logger.Info("scheduler: started", "jobs", len(s.jobs), "interval", s.cfg.Interval)
	return nil
}

// Stop halts the polling loop and waits for in-flight runs. Returns
// ErrNotStarted if not running.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	s.wg.Wait()
	s.cfg.Logger.Info("scheduler: stopped")
	return nil
}

// RunNow executes the named job immediately, bypassing the due-check
// but still honoring the per-job lock. Returns the job's output.
func (s *Scheduler) RunNow(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	var target *job.Job
	for _, j := range s.jobs {
		if j.Name() == name {
			target = j
			break
		}
	}
	lock := s.locks[name]
	s.mu.Unlock()

	if target == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}

	lock.Lock()
	defer lock.Unlock()

	return s.execute(ctx, target)
}

// run is the main ticker loop. One tick fires immediately so a freshly
// started daemon does not wait a full interval before the first poll.
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick polls every registered job once. A failing job never aborts the
// cycle: errors are logged and the remaining jobs still get polled.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.cfg.Now()

	for _, j := range s.Jobs() {
		if ctx.Err() != nil {
			return
		}

		due, err := s.cfg.Checker.IsDue(j, now)
		if err != nil {
			s.cfg.Logger.Error("scheduler: due-check failed", "job", j.Name(), "error", err)
			continue
		}
		if !due {
			continue
		}

		s.mu.Lock()
		lock := s.locks[j.Name()]
		s.mu.Unlock()

		// The job may have been swapped out by a reload since the
		// snapshot was taken.
		if lock == nil {
			continue
		}

		// If the previous run is still in flight, skip this tick.
		if !lock.TryLock() {
			s.cfg.Logger.Warn("scheduler: job still running, skipping tick", "job", j.Name())
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.RecordSkip(j.Name())
			}
			continue
		}

		s.wg.Add(1)
		go func(j *job.Job) {
			defer s.wg.Done()
			defer lock.Unlock()

			if _, err := s.execute(ctx, j); err != nil {
				s.cfg.Logger.Error("scheduler: job failed", "job", j.Name(), "error", err)
			}
		}(j)
	}
}

// execute runs one job attempt: metrics, execution, last-run tracking,
// and history recording.
func (s *Scheduler) execute(ctx context.Context, j *job.Job) (string, error) {
	start := s.cfg.Now()
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordStart(j.Name())
	}

	s.cfg.Logger.Debug("scheduler: job started", "job", j.Name())
	out, execErr := s.cfg.Executor.Exec(ctx, j)
	elapsed := s.cfg.Now().Sub(start)

	// The attempt is recorded whether it succeeded or not: a failed run
	// is not retried until the next schedule boundary.
	if path := j.LastRunFile(); path != "" && s.cfg.Timestamps != nil {
		if err := s.cfg.Timestamps.WriteTimestamp(path, start); err != nil {
			s.cfg.Logger.Error("scheduler: last-run tracking failed", "job", j.Name(), "error", err)
		}
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.RecordDone(j.Name(), elapsed, execErr != nil)
	}

	if s.cfg.History != nil {
		run := history.Run{
			Job:       j.Name(),
			StartedAt: start,
			Duration:  elapsed,
			OutputLen: len(out),
		}
		if execErr != nil {
			run.Err = execErr.Error()
		}
		if err := s.cfg.History.Record(ctx, run); err != nil {
			s.cfg.Logger.Error("scheduler: history record failed", "job", j.Name(), "error", err)
		}
	}

	if execErr != nil {
		return out, execErr
	}

	s.cfg.Logger.Debug("scheduler: job completed", "job", j.Name(), "duration", elapsed)
	return out, nil
}
