package messages

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores messages in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu             sync.RWMutex
	byID           map[string]Message
	byConversation map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:           make(map[string]Message),
		byConversation: make(map[string][]string),
	}
}

// Create stores the message.
func (r *MemoryRepo) Create(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[msg.ID] = msg
	r.byConversation[msg.ConversationID] = append(r.byConversation[msg.ConversationID], msg.ID)
	return nil
}

// GetByID returns a message by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, messageID string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	msg, ok := r.byID[messageID]
	if !ok {
		return Message{}, ErrNotFound
	}
	return msg, nil
}

// ListByConversation returns a conversation's messages ordered oldest first.
func (r *MemoryRepo) ListByConversation(ctx context.Context, conversationID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byConversation[conversationID]
	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := r.byID[id]; ok {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateAnalysis sets the analysis field for an existing message.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, messageID string, analysis map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.byID[messageID]
	if !ok {
		return ErrNotFound
	}
	msg.Analysis = analysis
	r.byID[messageID] = msg
	return nil
}

// ListUnanalyzed returns user messages without analysis, newest first.
func (r *MemoryRepo) ListUnanalyzed(ctx context.Context, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Message
	for _, msg := range r.byID {
		if msg.SenderType == SenderUser && !msg.Analyzed() {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
