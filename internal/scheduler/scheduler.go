package scheduler

import (
	"time"

	"support-backend/internal/taskqueue"
)

// Scheduler is the façade the rest of the app uses to request analysis.
// It hides job kinds and queue mechanics behind two intent-named calls.
type Scheduler struct {
	Queue *taskqueue.Queue
}

// ScheduleMessageAnalysis enqueues a message analysis job due after delay
// and returns the job ID.
func (s *Scheduler) ScheduleMessageAnalysis(messageID string, delay time.Duration) (string, error) {
	return s.Queue.Enqueue(taskqueue.KindAnalyzeMessage, messageID, delay)
}

// ScheduleConversationAnalysis enqueues a conversation analysis job due
// after delay and returns the job ID.
func (s *Scheduler) ScheduleConversationAnalysis(conversationID string, delay time.Duration) (string, error) {
	return s.Queue.Enqueue(taskqueue.KindAnalyzeConversation, conversationID, delay)
}

// GetStatus returns a snapshot of the underlying queue.
func (s *Scheduler) GetStatus() taskqueue.Stats {
	return s.Queue.Status()
}
