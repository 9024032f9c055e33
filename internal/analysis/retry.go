package analysis

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"support-backend/internal/llm"
	"support-backend/internal/shared/telemetry"
)

const providerRetryBaseDelay = 300 * time.Millisecond

// RetryingProvider wraps a Provider with a single bounded retry for
// transient failures. Anything beyond that is left to the sweep.
type RetryingProvider struct {
	Base Provider
}

func (r RetryingProvider) Name() string      { return r.Base.Name() }
func (r RetryingProvider) ModelName() string { return r.Base.ModelName() }

func (r RetryingProvider) Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error) {
	finding, err := r.Base.Analyze(ctx, input)
	if err == nil || !shouldRetryProvider(err) {
		return finding, err
	}

	telemetry.Warn("analysis.provider_retry", map[string]any{
		"provider": r.Base.Name(),
		"error":    sanitizeError(err),
	})
	select {
	case <-time.After(providerRetryBaseDelay):
	case <-ctx.Done():
		return Finding{}, ctx.Err()
	}

	return r.Base.Analyze(ctx, input)
}

func shouldRetryProvider(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http 5") || strings.Contains(msg, "http 429") ||
		strings.Contains(msg, "unavailable") || strings.Contains(msg, "resource_exhausted") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "gemini") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

// sanitizeError truncates error text so huge provider payloads never land
// in logs or job records.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 500 {
		return msg[:500]
	}
	return msg
}

var _ Provider = RetryingProvider{}
