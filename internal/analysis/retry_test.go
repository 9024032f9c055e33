package analysis

import (
	"context"
	"errors"
	"testing"

	"support-backend/internal/llm"
)

func TestRetryingProviderRetriesTransientErrors(t *testing.T) {
	base := &flakyProvider{failures: 1, err: errors.New("gemini http 503")}
	provider := RetryingProvider{Base: base}

	finding, err := provider.Analyze(context.Background(), llm.AnalyzeInput{Transcript: "hi"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if finding.Sentiment != "neutral" {
		t.Errorf("sentiment = %q, want neutral", finding.Sentiment)
	}
	if base.calls != 2 {
		t.Errorf("calls = %d, want 2", base.calls)
	}
}

func TestRetryingProviderDoesNotRetryPermanentErrors(t *testing.T) {
	base := &flakyProvider{failures: 2, err: errors.New("gemini error: API key not valid (INVALID_ARGUMENT)")}
	provider := RetryingProvider{Base: base}

	if _, err := provider.Analyze(context.Background(), llm.AnalyzeInput{Transcript: "hi"}); err == nil {
		t.Fatal("expected error")
	}
	if base.calls != 1 {
		t.Errorf("calls = %d, want 1", base.calls)
	}
}

func TestShouldRetryProvider(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.DeadlineExceeded, true},
		{errors.New("gemini http 503"), true},
		{errors.New("gemini http 429"), true},
		{errors.New("connection reset by peer"), true},
		{errors.New("gemini request timeout: Client.Timeout exceeded"), true},
		{errors.New("invalid JSON from Gemini"), false},
		{errors.New("decode model verdict: unexpected end of JSON input"), false},
	}
	for _, tc := range tests {
		if got := shouldRetryProvider(tc.err); got != tc.want {
			t.Errorf("shouldRetryProvider(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

type flakyProvider struct {
	failures int
	err      error
	calls    int
}

func (p *flakyProvider) Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error) {
	p.calls++
	if p.calls <= p.failures {
		return Finding{}, p.err
	}
	return Finding{Sentiment: "neutral"}, nil
}

func (p *flakyProvider) Name() string      { return "flaky" }
func (p *flakyProvider) ModelName() string { return "flaky-model" }
