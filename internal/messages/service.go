package messages

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"support-backend/internal/conversations"
	"support-backend/internal/shared/telemetry"
)

// Scheduler enqueues deferred analysis work.
type Scheduler interface {
	ScheduleMessageAnalysis(messageID string, delay time.Duration) (string, error)
	ScheduleConversationAnalysis(conversationID string, delay time.Duration) (string, error)
}

// Service creates messages and triggers follow-up analysis scheduling.
type Service struct {
	Repo          Repo
	Conversations conversations.Repo
	Scheduler     Scheduler

	// MessageDelay and ConversationDelay space out analysis so rapid
	// follow-up edits land before the worker picks the job up.
	MessageDelay      time.Duration
	ConversationDelay time.Duration
	// ConversationMinMessages is the size a conversation must reach before
	// a conversation-level analysis is scheduled.
	ConversationMinMessages int
}

// Create validates and stores a message, then schedules analysis work:
// user messages get a message-level job, and once the conversation reaches
// ConversationMinMessages without an analysis a conversation-level job is
// scheduled as well. Scheduling failures are logged and never fail the create.
func (s *Service) Create(ctx context.Context, conversationID, senderType, content string) (Message, error) {
	senderType = strings.TrimSpace(senderType)
	content = strings.TrimSpace(content)
	if !ValidSender(senderType) {
		return Message{}, fmt.Errorf("%w: unknown sender type %q", ErrInvalidInput, senderType)
	}
	if content == "" {
		return Message{}, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	conv, err := s.Conversations.GetByID(ctx, conversationID)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderType:     senderType,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, msg); err != nil {
		return Message{}, fmt.Errorf("create message: %w", err)
	}

	total, err := s.Conversations.IncrementMessages(ctx, conversationID)
	if err != nil {
		telemetry.Warn("message.count_update_failed", map[string]any{
			"conversationId": conversationID,
			"error":          err.Error(),
		})
		total = conv.TotalMessages + 1
	}

	if senderType == SenderUser {
		if jobID, err := s.Scheduler.ScheduleMessageAnalysis(msg.ID, s.MessageDelay); err != nil {
			telemetry.Warn("message.analysis_schedule_failed", map[string]any{
				"messageId": msg.ID,
				"error":     err.Error(),
			})
		} else {
			telemetry.Info("message.analysis_scheduled", map[string]any{
				"messageId": msg.ID,
				"jobId":     jobID,
			})
		}
	}

	if total >= s.ConversationMinMessages && !conv.Analyzed() {
		if jobID, err := s.Scheduler.ScheduleConversationAnalysis(conversationID, s.ConversationDelay); err != nil {
			telemetry.Warn("conversation.analysis_schedule_failed", map[string]any{
				"conversationId": conversationID,
				"error":          err.Error(),
			})
		} else {
			telemetry.Info("conversation.analysis_scheduled", map[string]any{
				"conversationId": conversationID,
				"jobId":          jobID,
				"totalMessages":  total,
			})
		}
	}

	return msg, nil
}
