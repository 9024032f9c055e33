package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"support-backend/internal/llm"
)

// RemoteProvider produces findings by calling a remote LLM.
type RemoteProvider struct {
	Client llm.Client
	Model  string
}

// Name includes the model so persisted provenance identifies what
// produced the analysis.
func (p *RemoteProvider) Name() string      { return "llm:" + p.Model }
func (p *RemoteProvider) ModelName() string { return p.Model }

type remotePayload struct {
	Sentiment      string  `json:"sentiment"`
	Satisfaction   string  `json:"satisfaction"`
	Urgency        string  `json:"urgency"`
	Issues         []Issue `json:"issues"`
	Escalation     bool    `json:"escalation_needed"`
	DocImprovement string  `json:"doc_improvement_potential"`
	FAQPotential   string  `json:"faq_potential"`
}

// Analyze calls the model and normalizes its JSON verdict.
func (p *RemoteProvider) Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error) {
	raw, err := p.Client.Analyze(ctx, input)
	if err != nil {
		return Finding{}, err
	}

	var payload remotePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Finding{}, fmt.Errorf("decode model verdict: %w", err)
	}

	issues := make([]Issue, 0, len(payload.Issues))
	confidence := 0.0
	for _, issue := range payload.Issues {
		issue.Type = strings.ToLower(strings.TrimSpace(issue.Type))
		issue.Severity = strings.ToLower(strings.TrimSpace(issue.Severity))
		// Some models return a single "none" issue instead of an empty list.
		if issue.Type == "" || issue.Type == "none" {
			continue
		}
		if issue.Confidence > confidence {
			confidence = issue.Confidence
		}
		issues = append(issues, issue)
	}
	if confidence <= 0 {
		confidence = 0.9
	}

	return Finding{
		Sentiment:      payload.Sentiment,
		Satisfaction:   payload.Satisfaction,
		Urgency:        payload.Urgency,
		Issues:         issues,
		Escalation:     payload.Escalation,
		DocImprovement: payload.DocImprovement,
		FAQPotential:   payload.FAQPotential,
		Confidence:     confidence,
	}, nil
}

var _ Provider = (*RemoteProvider)(nil)
