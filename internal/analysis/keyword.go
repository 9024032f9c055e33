package analysis

import (
	"context"
	"strings"

	"support-backend/internal/llm"
)

// KeywordProvider is a deterministic heuristic provider. It is only used
// when explicitly configured as the provider, never as a hidden fallback
// for a failed remote call.
type KeywordProvider struct{}

func (KeywordProvider) Name() string      { return "keyword" }
func (KeywordProvider) ModelName() string { return "keyword-rules" }

var negativeWords = []string{
	"angry", "frustrated", "terrible", "awful", "broken", "useless",
	"unacceptable", "disappointed", "worst", "refund", "cancel",
}

var positiveWords = []string{
	"thanks", "thank you", "great", "perfect", "awesome", "love",
	"excellent", "solved", "works now",
}

var urgentWords = []string{
	"urgent", "asap", "immediately", "right now", "emergency", "outage",
	"down", "production", "critical",
}

var issueKeywords = map[string][]string{
	"billing":       {"invoice", "charge", "billing", "payment", "refund", "subscription"},
	"bug":           {"error", "crash", "broken", "bug", "not working", "fails"},
	"account":       {"login", "password", "account", "locked", "access"},
	"documentation": {"docs", "documentation", "tutorial", "how do i", "how to"},
}

// Analyze scores the transcript with keyword heuristics.
func (p KeywordProvider) Analyze(ctx context.Context, input llm.AnalyzeInput) (Finding, error) {
	if err := ctx.Err(); err != nil {
		return Finding{}, err
	}
	text := strings.ToLower(input.Transcript)

	negatives := countMatches(text, negativeWords)
	positives := countMatches(text, positiveWords)

	sentiment := "neutral"
	switch {
	case negatives >= 2 && negatives > positives:
		sentiment = "very_negative"
	case negatives > positives:
		sentiment = "negative"
	case positives >= 2 && positives > negatives:
		sentiment = "very_positive"
	case positives > negatives:
		sentiment = "positive"
	}

	urgency := "low"
	switch urgent := countMatches(text, urgentWords); {
	case urgent >= 3:
		urgency = "critical"
	case urgent == 2:
		urgency = "high"
	case urgent == 1:
		urgency = "medium"
	}

	var issues []Issue
	for issueType, words := range issueKeywords {
		if countMatches(text, words) > 0 {
			issues = append(issues, Issue{
				Type:        issueType,
				Confidence:  0.6,
				Severity:    severityFor(urgency),
				Description: "keyword match",
			})
		}
	}

	docPotential := "low"
	faqPotential := "low"
	if countMatches(text, issueKeywords["documentation"]) > 0 {
		docPotential = "medium"
		faqPotential = "high"
	}

	return Finding{
		Sentiment:      sentiment,
		Urgency:        urgency,
		Issues:         issues,
		DocImprovement: docPotential,
		FAQPotential:   faqPotential,
		Confidence:     0.6,
	}, nil
}

func countMatches(text string, words []string) int {
	count := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}

func severityFor(urgency string) string {
	switch urgency {
	case "critical", "high":
		return "high"
	case "medium":
		return "medium"
	default:
		return "low"
	}
}

var _ Provider = KeywordProvider{}
