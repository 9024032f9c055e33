package messages

import "context"

// Repo defines persistence operations for messages.
type Repo interface {
	Create(ctx context.Context, msg Message) error
	GetByID(ctx context.Context, messageID string) (Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
	// UpdateAnalysis writes only the analysis column so concurrent edits to
	// other fields are never clobbered.
	UpdateAnalysis(ctx context.Context, messageID string, analysis map[string]any) error
	// ListUnanalyzed returns user messages with no (or empty) analysis,
	// newest first, up to limit.
	ListUnanalyzed(ctx context.Context, limit int) ([]Message, error)
}
