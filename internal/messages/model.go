package messages

import "time"

// Sender types for a message.
const (
	SenderUser  = "user"
	SenderBot   = "bot"
	SenderAdmin = "admin"
)

// Message is a single customer-support chat message.
type Message struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversationId"`
	SenderType     string         `json:"senderType"`
	Content        string         `json:"content"`
	Analysis       map[string]any `json:"analysis,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Analyzed reports whether the message already carries a non-empty analysis.
func (m Message) Analyzed() bool {
	return len(m.Analysis) > 0
}

// ValidSender reports whether the sender type is one of the known values.
func ValidSender(senderType string) bool {
	switch senderType {
	case SenderUser, SenderBot, SenderAdmin:
		return true
	default:
		return false
	}
}
