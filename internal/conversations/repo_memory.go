package conversations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores conversations in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Conversation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Conversation)}
}

// Create stores the conversation.
func (r *MemoryRepo) Create(ctx context.Context, conv Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[conv.ID] = conv
	return nil
}

// GetByID returns a conversation by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, conversationID string) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv, nil
}

// IncrementMessages bumps the message counter and returns the new total.
func (r *MemoryRepo) IncrementMessages(ctx context.Context, conversationID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return 0, ErrNotFound
	}
	conv.TotalMessages++
	conv.UpdatedAt = time.Now().UTC()
	r.byID[conversationID] = conv
	return conv.TotalMessages, nil
}

// UpdateAnalysis sets the analysis field for an existing conversation.
func (r *MemoryRepo) UpdateAnalysis(ctx context.Context, conversationID string, analysis map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.byID[conversationID]
	if !ok {
		return ErrNotFound
	}
	conv.Analysis = analysis
	conv.UpdatedAt = time.Now().UTC()
	r.byID[conversationID] = conv
	return nil
}

// ListUnanalyzed returns unanalyzed conversations with enough messages,
// most recently updated first.
func (r *MemoryRepo) ListUnanalyzed(ctx context.Context, minMessages, limit int) ([]Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Conversation
	for _, conv := range r.byID {
		if conv.TotalMessages >= minMessages && !conv.Analyzed() {
			out = append(out, conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
