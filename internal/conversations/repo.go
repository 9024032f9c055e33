package conversations

import "context"

// Repo defines persistence operations for conversations.
type Repo interface {
	Create(ctx context.Context, conv Conversation) error
	GetByID(ctx context.Context, conversationID string) (Conversation, error)
	// IncrementMessages bumps the message counter and returns the new total.
	IncrementMessages(ctx context.Context, conversationID string) (int, error)
	// UpdateAnalysis writes only the analysis column so concurrent edits to
	// other fields are never clobbered.
	UpdateAnalysis(ctx context.Context, conversationID string, analysis map[string]any) error
	// ListUnanalyzed returns conversations with at least minMessages messages
	// and no (or empty) analysis, most recently updated first, up to limit.
	ListUnanalyzed(ctx context.Context, minMessages, limit int) ([]Conversation, error)
}
