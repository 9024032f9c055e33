package analysis

import (
	"strconv"
	"strings"
	"time"
)

// sentimentScores maps model sentiment labels onto a 1..9 satisfaction score.
var sentimentScores = map[string]float64{
	"very_negative": 1.0,
	"negative":      3.0,
	"neutral":       5.0,
	"positive":      7.0,
	"very_positive": 9.0,
}

// urgencyScores maps urgency labels onto a 0..10 score.
var urgencyScores = map[string]float64{
	"low":      2,
	"medium":   5,
	"high":     8,
	"critical": 10,
}

// priorityFor maps urgency labels to routing priorities.
var priorityFor = map[string]string{
	"low":      "low",
	"medium":   "normal",
	"high":     "urgent",
	"critical": "critical",
}

// Provenance records where a Result came from.
type Provenance struct {
	Source    string
	Method    string
	Model     string
	Version   string
	Timestamp time.Time
}

// FormatFinding converts a provider Finding into the canonical Result.
func FormatFinding(f Finding, prov Provenance) Result {
	sentiment := normalizeLabel(f.Sentiment, "neutral")
	urgency := normalizeLabel(f.Urgency, "low")

	score, ok := sentimentScores[sentiment]
	if !ok {
		score = sentimentScores["neutral"]
	}
	level := satisfactionLevel(score)
	if explicit, ok := explicitSatisfaction(f.Satisfaction); ok {
		level = reconcileSatisfaction(level, explicit)
	}

	urgencyScore, ok := urgencyScores[urgency]
	if !ok {
		urgency = "low"
		urgencyScore = urgencyScores["low"]
	}
	priority := priorityFor[urgency]

	confidence := f.Confidence
	if confidence <= 0 {
		confidence = 0.5
	}

	issues := f.Issues
	if issues == nil {
		issues = []Issue{}
	}

	return Result{
		IssuesRaised: issues,
		Satisfaction: Satisfaction{
			Level:      level,
			Score:      score,
			Confidence: confidence,
		},
		Importance: Importance{
			Level:            urgency,
			Priority:         priority,
			UrgencyScore:     urgencyScore,
			EscalationNeeded: f.Escalation || urgency == "high" || urgency == "critical",
			BusinessImpact:   businessImpact(urgency),
		},
		DocImprovement: normalizeLabel(f.DocImprovement, "low"),
		FAQPotential:   normalizeLabel(f.FAQPotential, "low"),
		Source:         prov.Source,
		Method:         prov.Method,
		Model:          prov.Model,
		Version:        prov.Version,
		Timestamp:      prov.Timestamp,
	}
}

// explicitSatisfaction interprets the model's satisfaction signal, which
// arrives either as a level label or as a bare 0..10 score.
func explicitSatisfaction(raw string) (string, bool) {
	label := normalizeLabel(raw, "")
	switch label {
	case "":
		return "", false
	case "dissatisfied", "neutral", "satisfied":
		return label, true
	}
	if n, err := strconv.ParseFloat(label, 64); err == nil && n >= 0 && n <= 10 {
		return satisfactionLevel(n), true
	}
	return "", false
}

func satisfactionLevel(score float64) string {
	switch {
	case score < 4:
		return "dissatisfied"
	case score > 6:
		return "satisfied"
	default:
		return "neutral"
	}
}

// reconcileSatisfaction combines the sentiment-derived level with an
// explicit satisfaction label. The verdict further from neutral wins and
// ties go to the explicit label.
func reconcileSatisfaction(derived, explicit string) string {
	if derived == explicit {
		return derived
	}
	if derived == "neutral" {
		return explicit
	}
	if explicit == "neutral" {
		return derived
	}
	return explicit
}

func businessImpact(urgency string) string {
	switch urgency {
	case "critical":
		return "high"
	case "high":
		return "medium"
	default:
		return "low"
	}
}

func normalizeLabel(raw, fallback string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return fallback
	}
	return label
}
