package taskqueue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"support-backend/internal/shared/metrics"
	"support-backend/internal/shared/telemetry"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultErrorBackoff = 5 * time.Second
)

// ErrShutdown is returned by Enqueue after the queue has been shut down.
var ErrShutdown = errors.New("task queue is shut down")

// Executor runs one job. The queue never holds its lock while Execute runs.
type Executor interface {
	Execute(ctx context.Context, job Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job Job) error

func (f ExecutorFunc) Execute(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Options tunes queue timing. Zero values use the defaults.
type Options struct {
	// PollInterval is how often the worker scans for due jobs.
	PollInterval time.Duration
	// ErrorBackoff is how long the worker pauses after a loop-level
	// failure before resuming.
	ErrorBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.ErrorBackoff <= 0 {
		o.ErrorBackoff = defaultErrorBackoff
	}
	return o
}

// Stats is a point-in-time snapshot of the queue.
type Stats struct {
	Pending     int  `json:"pendingTasks"`
	Processing  int  `json:"processingTasks"`
	Failed      int  `json:"failedTasks"`
	Total       int  `json:"totalTasks"`
	WorkerAlive bool `json:"workerActive"`
}

// Queue is an in-process delay-aware job queue drained by a single
// background worker. All job-store access happens under one mutex and the
// mutex is never held while a job executes.
type Queue struct {
	exec Executor
	opts Options

	mu           sync.Mutex
	jobs         map[string]*Job
	failedCount  int
	running      bool
	shuttingDown bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// New constructs a Queue draining into exec.
func New(exec Executor, opts Options) (*Queue, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	return &Queue{
		exec: exec,
		opts: opts.withDefaults(),
		jobs: make(map[string]*Job),
	}, nil
}

// Start launches the background worker. Calling Start on a running or
// shut-down queue is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.startLocked()
}

func (q *Queue) startLocked() {
	if q.running || q.shuttingDown {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	q.cancel = cancel
	q.done = done
	q.running = true
	go q.worker(ctx, done)
	telemetry.Info("queue.worker_started", map[string]any{
		"pollIntervalMs": q.opts.PollInterval.Milliseconds(),
	})
}

// Enqueue registers a job for targetID that becomes due after delay.
// It never blocks on job execution and starts the worker if needed.
func (q *Queue) Enqueue(kind Kind, targetID string, delay time.Duration) (string, error) {
	if !ValidKind(kind) {
		return "", fmt.Errorf("unknown job kind %q", kind)
	}
	if targetID == "" {
		return "", fmt.Errorf("target id is required")
	}
	if delay < 0 {
		delay = 0
	}

	now := time.Now()
	job := &Job{
		ID:        newJobID(kind, targetID, now),
		Kind:      kind,
		TargetID:  targetID,
		Status:    StatusPending,
		CreatedAt: now,
		NotBefore: now.Add(delay),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shuttingDown {
		return "", ErrShutdown
	}
	q.jobs[job.ID] = job
	q.startLocked()
	metrics.IncJobsEnqueued()
	telemetry.Info("queue.job_enqueued", map[string]any{
		"jobId":    job.ID,
		"kind":     string(kind),
		"targetId": targetID,
		"delayMs":  delay.Milliseconds(),
	})
	return job.ID, nil
}

// Status returns a snapshot of the job store and worker liveness. Failed
// is a running count since failed jobs are not retained.
func (q *Queue) Status() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	stats := Stats{Failed: q.failedCount, WorkerAlive: q.running}
	for _, job := range q.jobs {
		switch job.Status {
		case StatusPending:
			stats.Pending++
		case StatusProcessing:
			stats.Processing++
		}
	}
	stats.Total = stats.Pending + stats.Processing
	return stats
}

// Shutdown stops the worker and waits for it to exit or for ctx to be
// done. It is idempotent and subsequent Enqueue calls fail.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.shuttingDown = true
	cancel := q.cancel
	done := q.done
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker(ctx context.Context, done chan struct{}) {
	defer func() {
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.opts.PollInterval):
		}
		if err := q.drainOnce(ctx); err != nil {
			telemetry.Error("queue.worker_error", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
				return
			case <-time.After(q.opts.ErrorBackoff):
			}
		}
	}
}

// drainOnce runs all currently due jobs. A panic escaping the loop body is
// converted to an error so the worker backs off and resumes.
func (q *Queue) drainOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker loop panic: %v", r)
		}
	}()

	for _, job := range q.claimDue() {
		q.runJob(ctx, job)
		if ctx.Err() != nil {
			return nil
		}
	}
	return nil
}

// claimDue moves due pending jobs to processing under the lock and
// returns copies, oldest due first.
func (q *Queue) claimDue() []Job {
	now := time.Now()
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Job
	for _, job := range q.jobs {
		if job.Status == StatusPending && !job.NotBefore.After(now) {
			job.Status = StatusProcessing
			due = append(due, *job)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NotBefore.Before(due[j].NotBefore)
	})
	return due
}

func (q *Queue) runJob(ctx context.Context, job Job) {
	err := q.executeScoped(ctx, job)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[job.ID]; !ok {
		return
	}
	delete(q.jobs, job.ID)
	if err == nil {
		metrics.IncJobsCompleted()
		telemetry.Info("queue.job_completed", map[string]any{
			"jobId":    job.ID,
			"kind":     string(job.Kind),
			"targetId": job.TargetID,
		})
		return
	}
	// Failed jobs are counted but not retained; the sweep reschedules the
	// entity later instead of the queue retrying the job.
	job.Status = StatusFailed
	job.LastError = truncateError(err)
	q.failedCount++
	metrics.IncJobsFailed()
	telemetry.Error("queue.job_failed", map[string]any{
		"jobId":    job.ID,
		"kind":     string(job.Kind),
		"targetId": job.TargetID,
		"error":    job.LastError,
	})
}

// executeScoped runs one job on its own goroutine so a panicking job can
// never take the worker loop down with it.
func (q *Queue) executeScoped(ctx context.Context, job Job) error {
	result := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("job panic: %v", r)
			}
		}()
		result <- q.exec.Execute(ctx, job)
	}()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 500 {
		return msg[:500]
	}
	return msg
}
