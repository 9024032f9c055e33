package analysis

import (
	"strings"

	"support-backend/internal/messages"
)

// maxTranscriptChars bounds the text sent to the provider. When a
// conversation is longer, the oldest lines are dropped first.
const maxTranscriptChars = 8000

// MessageTranscript renders a single message for analysis, bounded to
// maxTranscriptChars with the role tag kept.
func MessageTranscript(msg messages.Message) string {
	return truncateTranscript(msg.SenderType + ": " + strings.TrimSpace(msg.Content))
}

// ConversationTranscript renders a conversation as role-tagged lines with
// timestamps, oldest first, truncated to the newest maxTranscriptChars.
// The newest line is always kept, cut to the bound if it alone exceeds it.
func ConversationTranscript(msgs []messages.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		var b strings.Builder
		b.WriteString("[")
		b.WriteString(msg.CreatedAt.UTC().Format("2006-01-02 15:04"))
		b.WriteString("] ")
		b.WriteString(msg.SenderType)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(msg.Content))
		lines = append(lines, b.String())
	}
	if len(lines) == 0 {
		return ""
	}

	newest := lines[len(lines)-1]
	if len(newest) >= maxTranscriptChars {
		return truncateTranscript(newest)
	}

	total := len(newest)
	start := len(lines) - 1
	for i := len(lines) - 2; i >= 0; i-- {
		total += len(lines[i]) + 1
		if total > maxTranscriptChars {
			break
		}
		start = i
	}
	return strings.Join(lines[start:], "\n")
}

func truncateTranscript(s string) string {
	if len(s) <= maxTranscriptChars {
		return s
	}
	return s[:maxTranscriptChars]
}
