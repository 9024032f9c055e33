package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Kind distinguishes the two analysis targets.
const (
	KindMessage      = "message"
	KindConversation = "conversation"
)

// Client abstracts LLM providers for support analysis.
type Client interface {
	Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error)
}

// AnalyzeInput captures the inputs needed for an analysis request.
type AnalyzeInput struct {
	// Transcript is the role-tagged text of the message or conversation.
	Transcript    string
	Kind          string
	PromptVersion string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Analyze returns ErrNotImplemented.
func (PlaceholderClient) Analyze(ctx context.Context, input AnalyzeInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
