package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"support-backend/internal/taskqueue"
)

type recordingAnalyzer struct {
	mu            sync.Mutex
	messages      []string
	conversations []string
}

func (a *recordingAnalyzer) AnalyzeMessage(ctx context.Context, messageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, messageID)
	return nil
}

func (a *recordingAnalyzer) AnalyzeConversation(ctx context.Context, conversationID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.conversations = append(a.conversations, conversationID)
	return nil
}

func (a *recordingAnalyzer) seen() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages), len(a.conversations)
}

func TestSchedulerDispatchesByKind(t *testing.T) {
	analyzer := &recordingAnalyzer{}
	queue, err := taskqueue.New(NewExecutor(analyzer), taskqueue.Options{
		PollInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("taskqueue.New: %v", err)
	}
	defer queue.Shutdown(context.Background())
	sched := &Scheduler{Queue: queue}

	msgJob, err := sched.ScheduleMessageAnalysis("m1", 0)
	if err != nil {
		t.Fatalf("ScheduleMessageAnalysis: %v", err)
	}
	if !strings.HasPrefix(msgJob, string(taskqueue.KindAnalyzeMessage)) {
		t.Errorf("job id %q should carry the kind prefix", msgJob)
	}
	convJob, err := sched.ScheduleConversationAnalysis("c1", 0)
	if err != nil {
		t.Fatalf("ScheduleConversationAnalysis: %v", err)
	}
	if msgJob == convJob {
		t.Error("job ids must be unique")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgs, convs := analyzer.seen()
		if msgs == 1 && convs == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	msgs, convs := analyzer.seen()
	if msgs != 1 || convs != 1 {
		t.Fatalf("analyzer saw %d messages and %d conversations, want 1 and 1", msgs, convs)
	}
}

func TestExecutorRejectsUnknownKind(t *testing.T) {
	exec := NewExecutor(&recordingAnalyzer{})
	err := exec(context.Background(), taskqueue.Job{Kind: taskqueue.Kind("bogus")})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if errors.Is(err, context.Canceled) {
		t.Fatal("unexpected context error")
	}
}

func TestGetStatusReflectsQueue(t *testing.T) {
	queue, _ := taskqueue.New(NewExecutor(&recordingAnalyzer{}), taskqueue.Options{
		PollInterval: time.Hour,
	})
	defer queue.Shutdown(context.Background())
	sched := &Scheduler{Queue: queue}

	if _, err := sched.ScheduleMessageAnalysis("m1", time.Hour); err != nil {
		t.Fatalf("ScheduleMessageAnalysis: %v", err)
	}
	stats := sched.GetStatus()
	if stats.Pending != 1 || stats.Total != 1 {
		t.Errorf("stats = %+v, want one pending job", stats)
	}
	if !stats.WorkerAlive {
		t.Error("worker should be alive after scheduling")
	}
}
