package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"support-backend/internal/conversations"
	"support-backend/internal/llm"
	"support-backend/internal/messages"
)

type fakeProvider struct {
	finding Finding
	err     error
	calls   int
}

func (p *fakeProvider) Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error) {
	p.calls++
	if p.err != nil {
		return Finding{}, p.err
	}
	return p.finding, nil
}

func (p *fakeProvider) Name() string      { return "fake" }
func (p *fakeProvider) ModelName() string { return "fake-model" }

func newTestOrchestrator(t *testing.T, provider Provider) (*Orchestrator, *messages.MemoryRepo, *conversations.MemoryRepo) {
	t.Helper()
	msgRepo := messages.NewMemoryRepo()
	convRepo := conversations.NewMemoryRepo()
	orch, err := NewOrchestrator(provider, NewCache(), msgRepo, convRepo, "v1")
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orch, msgRepo, convRepo
}

func seedMessage(t *testing.T, repo *messages.MemoryRepo, msg messages.Message) {
	t.Helper()
	if err := repo.Create(context.Background(), msg); err != nil {
		t.Fatalf("seed message: %v", err)
	}
}

func TestAnalyzeMessagePersistsFormattedResult(t *testing.T) {
	provider := &fakeProvider{finding: Finding{Sentiment: "negative", Urgency: "high"}}
	orch, msgRepo, _ := newTestOrchestrator(t, provider)
	seedMessage(t, msgRepo, messages.Message{
		ID: "m1", ConversationID: "c1", SenderType: messages.SenderUser,
		Content: "the export is broken", CreatedAt: time.Now(),
	})

	if err := orch.AnalyzeMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("AnalyzeMessage: %v", err)
	}

	msg, err := msgRepo.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !msg.Analyzed() {
		t.Fatal("message should be analyzed")
	}
	if msg.Analysis["analysis_source"] != "fake" {
		t.Errorf("analysis_source = %v, want fake", msg.Analysis["analysis_source"])
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestAnalyzeMessageCacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{finding: Finding{Sentiment: "neutral"}}
	orch, msgRepo, _ := newTestOrchestrator(t, provider)
	seedMessage(t, msgRepo, messages.Message{
		ID: "m1", ConversationID: "c1", SenderType: messages.SenderUser,
		Content: "hello", CreatedAt: time.Now(),
	})

	if err := orch.AnalyzeMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("first AnalyzeMessage: %v", err)
	}

	// Drop the persisted analysis so only the cache can satisfy the rerun.
	if err := msgRepo.UpdateAnalysis(context.Background(), "m1", nil); err != nil {
		t.Fatalf("clear analysis: %v", err)
	}
	if err := orch.AnalyzeMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("second AnalyzeMessage: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second run should hit the cache)", provider.calls)
	}
	msg, _ := msgRepo.GetByID(context.Background(), "m1")
	if !msg.Analyzed() {
		t.Error("cached result should have been persisted on the rerun")
	}
}

func TestAnalyzeMessageVanishedIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	orch, _, _ := newTestOrchestrator(t, provider)

	if err := orch.AnalyzeMessage(context.Background(), "missing"); err != nil {
		t.Fatalf("vanished message should be a no-op, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

func TestAnalyzeMessageAlreadyAnalyzedIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	orch, msgRepo, _ := newTestOrchestrator(t, provider)
	seedMessage(t, msgRepo, messages.Message{
		ID: "m1", ConversationID: "c1", SenderType: messages.SenderUser,
		Content: "hello", CreatedAt: time.Now(),
		Analysis: map[string]any{"analysis_source": "llm"},
	})

	if err := orch.AnalyzeMessage(context.Background(), "m1"); err != nil {
		t.Fatalf("already analyzed message should be a no-op, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

func TestAnalyzeMessageProviderFailureIsRetryableAndWritesNothing(t *testing.T) {
	provider := &fakeProvider{err: errors.New("gemini http 503")}
	orch, msgRepo, _ := newTestOrchestrator(t, provider)
	seedMessage(t, msgRepo, messages.Message{
		ID: "m1", ConversationID: "c1", SenderType: messages.SenderUser,
		Content: "hello", CreatedAt: time.Now(),
	})

	err := orch.AnalyzeMessage(context.Background(), "m1")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Errorf("error should be retryable, got %v", err)
	}

	msg, _ := msgRepo.GetByID(context.Background(), "m1")
	if msg.Analyzed() {
		t.Error("no analysis may be written on provider failure")
	}
	if _, ok := orch.Cache().Get("m1"); ok {
		t.Error("no result may be cached on provider failure")
	}
}

func TestAnalyzeConversationUsesFullTranscript(t *testing.T) {
	provider := &fakeProvider{finding: Finding{Sentiment: "positive", Urgency: "low"}}
	orch, msgRepo, convRepo := newTestOrchestrator(t, provider)

	now := time.Now()
	conv := conversations.Conversation{ID: "c1", UserID: "u1", TotalMessages: 3, CreatedAt: now, UpdatedAt: now}
	if err := convRepo.Create(context.Background(), conv); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	seedMessage(t, msgRepo, messages.Message{ID: "m1", ConversationID: "c1", SenderType: messages.SenderUser, Content: "hi", CreatedAt: now})
	seedMessage(t, msgRepo, messages.Message{ID: "m2", ConversationID: "c1", SenderType: messages.SenderBot, Content: "hello", CreatedAt: now.Add(time.Second)})
	seedMessage(t, msgRepo, messages.Message{ID: "m3", ConversationID: "c1", SenderType: messages.SenderUser, Content: "all good now, thanks", CreatedAt: now.Add(2 * time.Second)})

	if err := orch.AnalyzeConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}

	got, err := convRepo.GetByID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Analyzed() {
		t.Fatal("conversation should be analyzed")
	}
	if got.Analysis["analysis_source"] != "fake" {
		t.Errorf("analysis_source = %v, want fake", got.Analysis["analysis_source"])
	}
}

func TestAnalyzeConversationEmptyIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	orch, _, convRepo := newTestOrchestrator(t, provider)
	now := time.Now()
	if err := convRepo.Create(context.Background(), conversations.Conversation{ID: "c1", UserID: "u1", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	if err := orch.AnalyzeConversation(context.Background(), "c1"); err != nil {
		t.Fatalf("empty conversation should be a no-op, got %v", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}
