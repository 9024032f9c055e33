package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"support-backend/internal/conversations"
	"support-backend/internal/llm"
	"support-backend/internal/messages"
	"support-backend/internal/shared/metrics"
	"support-backend/internal/shared/telemetry"
)

// Orchestrator runs the analysis pipeline for one target at a time:
// load the entity, short-circuit on no-op conditions, consult the cache,
// call the provider, format, cache, and persist. A failed provider call
// surfaces as a RetryableError so the caller can record the job as failed
// without writing any partial analysis.
type Orchestrator struct {
	provider      Provider
	cache         *Cache
	messages      messages.Repo
	conversations conversations.Repo
	version       string
}

// NewOrchestrator constructs an Orchestrator. All arguments are required.
func NewOrchestrator(provider Provider, cache *Cache, msgRepo messages.Repo, convRepo conversations.Repo, version string) (*Orchestrator, error) {
	if provider == nil {
		return nil, fmt.Errorf("analysis provider is required")
	}
	if cache == nil {
		cache = NewCache()
	}
	if msgRepo == nil || convRepo == nil {
		return nil, fmt.Errorf("message and conversation repos are required")
	}
	return &Orchestrator{
		provider:      provider,
		cache:         cache,
		messages:      msgRepo,
		conversations: convRepo,
		version:       version,
	}, nil
}

// Cache exposes the result cache for admin operations.
func (o *Orchestrator) Cache() *Cache {
	return o.cache
}

// AnalyzeMessage analyzes one message by ID. A vanished or already
// analyzed message is a successful no-op.
func (o *Orchestrator) AnalyzeMessage(ctx context.Context, messageID string) error {
	msg, err := o.messages.GetByID(ctx, messageID)
	if errors.Is(err, messages.ErrNotFound) {
		o.skip("message", messageID, "vanished")
		return nil
	}
	if err != nil {
		return Retryable(fmt.Errorf("load message: %w", err))
	}
	if msg.Analyzed() {
		o.skip("message", messageID, "already_analyzed")
		return nil
	}

	result, err := o.resolve(ctx, messageID, llm.AnalyzeInput{
		Transcript:    MessageTranscript(msg),
		Kind:          llm.KindMessage,
		PromptVersion: o.version,
	})
	if err != nil {
		return err
	}

	err = o.messages.UpdateAnalysis(ctx, messageID, result.ToMap())
	if errors.Is(err, messages.ErrNotFound) {
		o.skip("message", messageID, "vanished")
		return nil
	}
	if err != nil {
		return Retryable(fmt.Errorf("persist message analysis: %w", err))
	}
	o.completed("message", messageID, result)
	return nil
}

// AnalyzeConversation analyzes one conversation by ID. A vanished, empty,
// or already analyzed conversation is a successful no-op.
func (o *Orchestrator) AnalyzeConversation(ctx context.Context, conversationID string) error {
	conv, err := o.conversations.GetByID(ctx, conversationID)
	if errors.Is(err, conversations.ErrNotFound) {
		o.skip("conversation", conversationID, "vanished")
		return nil
	}
	if err != nil {
		return Retryable(fmt.Errorf("load conversation: %w", err))
	}
	if conv.Analyzed() {
		o.skip("conversation", conversationID, "already_analyzed")
		return nil
	}

	msgs, err := o.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return Retryable(fmt.Errorf("load conversation messages: %w", err))
	}
	if len(msgs) == 0 {
		o.skip("conversation", conversationID, "empty")
		return nil
	}

	result, err := o.resolve(ctx, conversationID, llm.AnalyzeInput{
		Transcript:    ConversationTranscript(msgs),
		Kind:          llm.KindConversation,
		PromptVersion: o.version,
	})
	if err != nil {
		return err
	}

	err = o.conversations.UpdateAnalysis(ctx, conversationID, result.ToMap())
	if errors.Is(err, conversations.ErrNotFound) {
		o.skip("conversation", conversationID, "vanished")
		return nil
	}
	if err != nil {
		return Retryable(fmt.Errorf("persist conversation analysis: %w", err))
	}
	o.completed("conversation", conversationID, result)
	return nil
}

// resolve returns the cached result for targetID or runs the provider and
// caches the formatted outcome.
func (o *Orchestrator) resolve(ctx context.Context, targetID string, input llm.AnalyzeInput) (Result, error) {
	if cached, ok := o.cache.Get(targetID); ok {
		metrics.IncAnalysisCacheHits()
		telemetry.Info("analysis.cache_hit", map[string]any{
			"targetId": targetID,
			"source":   cached.Source,
		})
		return cached, nil
	}

	start := time.Now()
	metrics.IncRemoteCalls()
	finding, err := o.provider.Analyze(ctx, input)
	if err != nil {
		metrics.IncRemoteCallErrors()
		telemetry.Warn("analysis.provider_failed", map[string]any{
			"targetId": targetID,
			"provider": o.provider.Name(),
			"error":    sanitizeError(err),
		})
		return Result{}, Retryable(err)
	}
	metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Milliseconds()))

	result := FormatFinding(finding, Provenance{
		Source:    o.provider.Name(),
		Method:    "automatic",
		Model:     o.provider.ModelName(),
		Version:   o.version,
		Timestamp: time.Now().UTC(),
	})
	if result.Source == "" {
		return Result{}, Retryable(fmt.Errorf("provider returned empty source"))
	}
	o.cache.Put(targetID, result)
	return result, nil
}

func (o *Orchestrator) skip(kind, targetID, reason string) {
	metrics.IncAnalysisSkipped()
	telemetry.Info("analysis.skipped", map[string]any{
		"kind":     kind,
		"targetId": targetID,
		"reason":   reason,
	})
}

func (o *Orchestrator) completed(kind, targetID string, result Result) {
	telemetry.Info("analysis.completed", map[string]any{
		"kind":     kind,
		"targetId": targetID,
		"source":   result.Source,
		"urgency":  result.Importance.Level,
	})
}
