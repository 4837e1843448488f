package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flemzord/jobkit/internal/job"
	"github.com/flemzord/jobkit/internal/job/jobtest"
)

// stubStampWriter records WriteTimestamp calls.
type stubStampWriter struct {
	mu     sync.Mutex
	writes map[string]time.Time
	err    error
}

func (s *stubStampWriter) WriteTimestamp(path string, t time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	if s.writes == nil {
		s.writes = make(map[string]time.Time)
	}
	s.writes[path] = t
	s.mu.Unlock()
	return nil
}

func (s *stubStampWriter) written(path string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.writes[path]
	return t, ok
}

// newTestScheduler wires a scheduler around mock collaborators.
func newTestScheduler(oracle *jobtest.MockOracle, stamps *stubStampWriter) *Scheduler {
	return New(Config{
		Checker: job.DueChecker{
			Oracle:     oracle,
			Timestamps: &jobtest.MockTimestamps{ReadErr: errors.New("missing")},
		},
		Executor:   job.NewExecutor(job.ExecutorConfig{Sinks: &jobtest.MockSink{}}),
		Timestamps: stamps,
	})
}

// countingJob returns an in-process job that counts executions.
func countingJob(name string, count *atomic.Int32) *job.Job {
	return job.NewCallable(name, func(context.Context, []job.Arg) (string, error) {
		count.Add(1)
		return "done", nil
	}).At("* * * * *")
}

func TestScheduler_RegisterDuplicateName(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	var n atomic.Int32
	if err := s.Register(countingJob("test", &n)); err != nil {
		t.Fatalf("first registration should succeed: %v", err)
	}
	if err := s.Register(countingJob("test", &n)); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func TestScheduler_RegisterUnnamed(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	var n atomic.Int32
	if err := s.Register(countingJob("", &n)); err == nil {
		t.Fatal("unnamed job should be rejected")
	}
}

func TestScheduler_TickRunsDueJobs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, &stubStampWriter{})

	var a, b atomic.Int32
	_ = s.Register(countingJob("a", &a))
	_ = s.Register(countingJob("b", &b))

	s.tick(context.Background())
	s.wg.Wait()

	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("runs = (%d, %d), want (1, 1)", a.Load(), b.Load())
	}
}

func TestScheduler_TickSkipsNotDue(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: false}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("idle", &n))

	s.tick(context.Background())
	s.wg.Wait()

	if n.Load() != 0 {
		t.Errorf("runs = %d, want 0", n.Load())
	}
}

func TestScheduler_BadJobDoesNotAbortCycle(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, &stubStampWriter{})

	// No schedule: the due-check errors, the cycle must continue.
	broken := job.NewCallable("broken", func(context.Context, []job.Arg) (string, error) {
		return "", nil
	})
	var n atomic.Int32

	_ = s.Register(broken)
	_ = s.Register(countingJob("healthy", &n))

	s.tick(context.Background())
	s.wg.Wait()

	if n.Load() != 1 {
		t.Errorf("healthy job ran %d times, want 1", n.Load())
	}
}

func TestScheduler_SkipWhileRunning(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("slow", &n))

	// Simulate an in-flight run by holding the per-job lock.
	s.locks["slow"].Lock()
	s.tick(context.Background())
	s.wg.Wait()
	s.locks["slow"].Unlock()

	if n.Load() != 0 {
		t.Errorf("runs = %d, want 0 (tick must be skipped while running)", n.Load())
	}
}

func TestScheduler_WritesLastRunFile(t *testing.T) {
	t.Parallel()

	stamps := &stubStampWriter{}
	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, stamps)

	var n atomic.Int32
	j := countingJob("tracked", &n).
		Setup(map[string]any{"lastExecutionFile": "/run/tracked.last"})
	_ = s.Register(j)

	s.tick(context.Background())
	s.wg.Wait()

	if _, ok := stamps.written("/run/tracked.last"); !ok {
		t.Error("last-execution file not recorded after run")
	}
}

func TestScheduler_RecordsAttemptEvenOnFailure(t *testing.T) {
	t.Parallel()

	stamps := &stubStampWriter{}
	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, stamps)

	failing := job.NewCallable("failing", func(context.Context, []job.Arg) (string, error) {
		return "", errors.New("boom")
	}).
		At("* * * * *").
		Setup(map[string]any{"lastExecutionFile": "/run/failing.last"})
	_ = s.Register(failing)

	s.tick(context.Background())
	s.wg.Wait()

	// A failed run is not retried until the next schedule boundary.
	if _, ok := stamps.written("/run/failing.last"); !ok {
		t.Error("failed attempt must still be recorded")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: false}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("manual", &n))

	out, err := s.RunNow(context.Background(), "manual")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if out != "done" {
		t.Errorf("output = %q", out)
	}
	if n.Load() != 1 {
		t.Errorf("runs = %d, want 1 (RunNow bypasses the due-check)", n.Load())
	}
}

func TestScheduler_RunNowUnknownJob(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	_, err := s.RunNow(context.Background(), "ghost")
	if !errors.Is(err, ErrUnknownJob) {
		t.Errorf("err = %v, want ErrUnknownJob", err)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second start: err = %v, want ErrAlreadyStarted", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := s.Stop(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("second stop: err = %v, want ErrNotStarted", err)
	}
}

func TestScheduler_Replace(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, &stubStampWriter{})

	var old, fresh atomic.Int32
	_ = s.Register(countingJob("old", &old))

	if err := s.Replace([]*job.Job{countingJob("fresh", &fresh)}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	s.tick(context.Background())
	s.wg.Wait()

	if old.Load() != 0 {
		t.Errorf("removed job ran %d times", old.Load())
	}
	if fresh.Load() != 1 {
		t.Errorf("new job ran %d times, want 1", fresh.Load())
	}
}

func TestScheduler_ReplaceRejectsDuplicates(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("keep", &n))

	err := s.Replace([]*job.Job{countingJob("dup", &n), countingJob("dup", &n)})
	if err == nil {
		t.Fatal("duplicate names should be rejected")
	}

	// The old set must survive a failed replace.
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Name() != "keep" {
		t.Errorf("jobs after failed replace = %v", jobs)
	}
}

func TestScheduler_ReplaceKeepsLockOfSurvivingJob(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{DueVal: true}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("busy", &n))

	// Simulate an in-flight run, then swap in an updated job set that
	// still contains the job.
	s.locks["busy"].Lock()
	if err := s.Replace([]*job.Job{countingJob("busy", &n)}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	s.tick(context.Background())
	s.wg.Wait()
	s.locks["busy"].Unlock()

	if n.Load() != 0 {
		t.Errorf("runs = %d, want 0 (in-flight lock must survive a reload)", n.Load())
	}
}

func TestScheduler_StopWaitsForInflightRun(t *testing.T) {
	t.Parallel()

	s := New(Config{
		Checker: job.DueChecker{
			Oracle:     &jobtest.MockOracle{DueVal: true},
			Timestamps: &jobtest.MockTimestamps{ReadErr: errors.New("missing")},
		},
		Executor:   job.NewExecutor(job.ExecutorConfig{Sinks: &jobtest.MockSink{}}),
		Timestamps: &stubStampWriter{},
		Interval:   time.Hour,
	})

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	slow := job.NewCallable("slow", func(context.Context, []job.Arg) (string, error) {
		close(started)
		<-release
		finished.Store(true)
		return "", nil
	}).At("* * * * *")
	_ = s.Register(slow)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !finished.Load() {
		t.Error("stop returned while a run was still in flight")
	}
}

func TestScheduler_Jobs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(&jobtest.MockOracle{}, &stubStampWriter{})

	var n atomic.Int32
	_ = s.Register(countingJob("a", &n))
	_ = s.Register(countingJob("b", &n))

	jobs := s.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "a" || jobs[1].Name() != "b" {
		t.Errorf("Jobs() = %v", jobs)
	}
}
