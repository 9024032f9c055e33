package sweep

import (
	"context"
	"fmt"
	"time"

	"support-backend/internal/conversations"
	"support-backend/internal/messages"
	"support-backend/internal/shared/telemetry"
)

const defaultLimit = 50

// Scheduler enqueues deferred analysis work.
type Scheduler interface {
	ScheduleMessageAnalysis(messageID string, delay time.Duration) (string, error)
	ScheduleConversationAnalysis(conversationID string, delay time.Duration) (string, error)
}

// Sweeper re-schedules analysis for entities the pipeline missed: user
// messages with no analysis and conversations that grew past the
// threshold without one. Failed jobs fall out of the queue, so the sweep
// is what eventually retries them.
type Sweeper struct {
	Messages      messages.Repo
	Conversations conversations.Repo
	Scheduler     Scheduler
	// Limit caps how many of each entity one sweep touches.
	Limit int
	// MinMessages is the conversation-analysis threshold.
	MinMessages int
}

// Report summarizes one sweep run.
type Report struct {
	MessagesScheduled      int `json:"messagesScheduled"`
	ConversationsScheduled int `json:"conversationsScheduled"`
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	var report Report

	msgs, err := s.Messages.ListUnanalyzed(ctx, limit)
	if err != nil {
		return report, fmt.Errorf("list unanalyzed messages: %w", err)
	}
	for _, msg := range msgs {
		if _, err := s.Scheduler.ScheduleMessageAnalysis(msg.ID, 0); err != nil {
			return report, fmt.Errorf("schedule message %s: %w", msg.ID, err)
		}
		report.MessagesScheduled++
	}

	convs, err := s.Conversations.ListUnanalyzed(ctx, s.MinMessages, limit)
	if err != nil {
		return report, fmt.Errorf("list unanalyzed conversations: %w", err)
	}
	for _, conv := range convs {
		if _, err := s.Scheduler.ScheduleConversationAnalysis(conv.ID, 0); err != nil {
			return report, fmt.Errorf("schedule conversation %s: %w", conv.ID, err)
		}
		report.ConversationsScheduled++
	}

	telemetry.Info("sweep.completed", map[string]any{
		"messagesScheduled":      report.MessagesScheduled,
		"conversationsScheduled": report.ConversationsScheduled,
	})
	return report, nil
}

// Start runs the sweep every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.Run(ctx); err != nil {
					telemetry.Error("sweep.failed", map[string]any{"error": err.Error()})
				}
			}
		}
	}()
}
