package analysis

import (
	"encoding/json"
	"time"
)

// Issue is one concrete problem raised in a message or conversation.
type Issue struct {
	Type        string  `json:"type"`
	Confidence  float64 `json:"confidence"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
}

// Satisfaction summarizes how content the customer appears to be.
type Satisfaction struct {
	Level      string  `json:"level"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Importance captures urgency and routing signals.
type Importance struct {
	Level            string  `json:"level"`
	Priority         string  `json:"priority"`
	UrgencyScore     float64 `json:"urgencyScore"`
	EscalationNeeded bool    `json:"escalationNeeded"`
	BusinessImpact   string  `json:"businessImpact"`
}

// Result is the canonical analysis stored on messages and conversations.
// Source records which provider produced the analysis and must never be empty.
type Result struct {
	IssuesRaised   []Issue      `json:"issues_raised"`
	Satisfaction   Satisfaction `json:"satisfaction_level"`
	Importance     Importance   `json:"importance_level"`
	DocImprovement string       `json:"doc_improvement_potential"`
	FAQPotential   string       `json:"faq_potential"`

	Source    string    `json:"analysis_source"`
	Method    string    `json:"analysis_method"`
	Model     string    `json:"model"`
	Version   string    `json:"analysis_version"`
	Timestamp time.Time `json:"analyzed_at"`
}

// ToMap renders the result in the shape persisted on the entity's
// analysis column.
func (r Result) ToMap() map[string]any {
	data, err := json.Marshal(r)
	if err != nil {
		return map[string]any{"analysis_source": r.Source}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"analysis_source": r.Source}
	}
	return out
}
