package analysis

import (
	"context"

	"support-backend/internal/llm"
)

// Finding is a provider's normalized raw verdict before formatting.
type Finding struct {
	Sentiment      string
	Satisfaction   string
	Urgency        string
	Issues         []Issue
	Escalation     bool
	DocImprovement string
	FAQPotential   string
	Confidence     float64
}

// Provider produces a Finding for a transcript. Implementations call a
// remote model or run local heuristics.
type Provider interface {
	Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error)
	Name() string
	ModelName() string
}
