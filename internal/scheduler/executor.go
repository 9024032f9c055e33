package scheduler

import (
	"context"
	"fmt"

	"support-backend/internal/taskqueue"
)

// Analyzer runs the analysis pipeline for one target.
type Analyzer interface {
	AnalyzeMessage(ctx context.Context, messageID string) error
	AnalyzeConversation(ctx context.Context, conversationID string) error
}

// NewExecutor dispatches queue jobs to the analyzer by kind.
func NewExecutor(analyzer Analyzer) taskqueue.ExecutorFunc {
	return func(ctx context.Context, job taskqueue.Job) error {
		switch job.Kind {
		case taskqueue.KindAnalyzeMessage:
			return analyzer.AnalyzeMessage(ctx, job.TargetID)
		case taskqueue.KindAnalyzeConversation:
			return analyzer.AnalyzeConversation(ctx, job.TargetID)
		default:
			return fmt.Errorf("unknown job kind %q", job.Kind)
		}
	}
}
