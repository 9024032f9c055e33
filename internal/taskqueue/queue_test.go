package taskqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func fastOptions() Options {
	return Options{PollInterval: 10 * time.Millisecond, ErrorBackoff: 20 * time.Millisecond}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

type recordingExecutor struct {
	mu       sync.Mutex
	executed []Job
	fail     map[string]error
	panics   map[string]bool
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{
		fail:   make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (e *recordingExecutor) Execute(ctx context.Context, job Job) error {
	e.mu.Lock()
	e.executed = append(e.executed, job)
	failErr := e.fail[job.TargetID]
	shouldPanic := e.panics[job.TargetID]
	e.mu.Unlock()
	if shouldPanic {
		panic("executor blew up")
	}
	return failErr
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.executed)
}

func (e *recordingExecutor) targets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.executed))
	for _, job := range e.executed {
		out = append(out, job.TargetID)
	}
	return out
}

func TestEnqueueRunsJobAndRemovesIt(t *testing.T) {
	exec := newRecordingExecutor()
	q, err := New(exec, fastOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer q.Shutdown(context.Background())

	jobID, err := q.Enqueue(KindAnalyzeMessage, "m1", 0)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a job id")
	}

	waitFor(t, 2*time.Second, func() bool { return exec.count() == 1 })
	waitFor(t, 2*time.Second, func() bool { return q.Status().Total == 0 })

	stats := q.Status()
	if !stats.WorkerAlive {
		t.Error("worker should stay alive after draining")
	}
}

func TestEnqueueRespectsDelay(t *testing.T) {
	exec := newRecordingExecutor()
	q, _ := New(exec, fastOptions())
	defer q.Shutdown(context.Background())

	if _, err := q.Enqueue(KindAnalyzeMessage, "m1", 150*time.Millisecond); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	if exec.count() != 0 {
		t.Fatal("job ran before its delay elapsed")
	}
	waitFor(t, 2*time.Second, func() bool { return exec.count() == 1 })
}

func TestFailedJobIsCountedAndRemoved(t *testing.T) {
	exec := newRecordingExecutor()
	exec.fail["m1"] = errors.New("remote model unavailable")
	q, _ := New(exec, fastOptions())
	defer q.Shutdown(context.Background())

	if _, err := q.Enqueue(KindAnalyzeMessage, "m1", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return q.Status().Failed == 1 })
	stats := q.Status()
	if stats.Pending != 0 || stats.Processing != 0 || stats.Total != 0 {
		t.Errorf("stats = %+v, want the failed job removed from the store", stats)
	}
	if !stats.WorkerAlive {
		t.Error("a failed job must not stop the worker")
	}

	// The caller can reschedule the same entity after a failure.
	if _, err := q.Enqueue(KindAnalyzeMessage, "m1", 0); err != nil {
		t.Fatalf("Enqueue after failure: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return exec.count() == 2 })
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	exec := newRecordingExecutor()
	exec.panics["boom"] = true
	q, _ := New(exec, fastOptions())
	defer q.Shutdown(context.Background())

	if _, err := q.Enqueue(KindAnalyzeMessage, "boom", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return q.Status().Failed == 1 })

	if _, err := q.Enqueue(KindAnalyzeConversation, "c1", 0); err != nil {
		t.Fatalf("Enqueue after panic: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		for _, target := range exec.targets() {
			if target == "c1" {
				return true
			}
		}
		return false
	})
}

func TestEnqueueDoesNotBlockOnSlowExecutor(t *testing.T) {
	release := make(chan struct{})
	q, _ := New(ExecutorFunc(func(ctx context.Context, job Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}), fastOptions())
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	if _, err := q.Enqueue(KindAnalyzeMessage, "m1", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return q.Status().Processing == 1 })

	start := time.Now()
	if _, err := q.Enqueue(KindAnalyzeMessage, "m2", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Enqueue blocked for %v while a job was executing", elapsed)
	}
}

func TestShutdownIsIdempotentAndRejectsNewJobs(t *testing.T) {
	exec := newRecordingExecutor()
	q, _ := New(exec, fastOptions())

	if _, err := q.Enqueue(KindAnalyzeMessage, "m1", 0); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}

	if _, err := q.Enqueue(KindAnalyzeMessage, "m2", 0); !errors.Is(err, ErrShutdown) {
		t.Errorf("Enqueue after shutdown = %v, want ErrShutdown", err)
	}
	if q.Status().WorkerAlive {
		t.Error("worker should be stopped after shutdown")
	}
}

func TestEnqueueValidation(t *testing.T) {
	q, _ := New(newRecordingExecutor(), fastOptions())
	defer q.Shutdown(context.Background())

	if _, err := q.Enqueue(Kind("bogus"), "m1", 0); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := q.Enqueue(KindAnalyzeMessage, "", 0); err == nil {
		t.Error("expected error for empty target id")
	}
}
