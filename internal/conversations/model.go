package conversations

import "time"

// Conversation groups the messages of one support session.
type Conversation struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	Title         string         `json:"title"`
	TotalMessages int            `json:"totalMessages"`
	Analysis      map[string]any `json:"analysis,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Analyzed reports whether the conversation already carries a non-empty analysis.
func (c Conversation) Analyzed() bool {
	return len(c.Analysis) > 0
}
