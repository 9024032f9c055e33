package gemini

import (
	"fmt"

	"support-backend/internal/llm"
)

const systemPrompt = "You are a customer support analysis engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."

const schemaPrompt = `Return a JSON object with exactly these keys:
{
  "sentiment": "very_negative" | "negative" | "neutral" | "positive" | "very_positive",
  "satisfaction": "dissatisfied" | "neutral" | "satisfied",
  "urgency": "low" | "medium" | "high" | "critical",
  "issues": [{"type": string, "confidence": number, "severity": "low" | "medium" | "high", "description": string}],
  "escalation_needed": boolean,
  "doc_improvement_potential": "low" | "medium" | "high",
  "faq_potential": "low" | "medium" | "high"
}
If no concrete issue is raised, return "issues": [].`

// BuildPrompt creates the system and user prompt for an analysis request.
func BuildPrompt(input llm.AnalyzeInput) (string, string) {
	subject := "customer support message"
	if input.Kind == llm.KindConversation {
		subject = "customer support conversation transcript"
	}
	user := fmt.Sprintf("%s\n\nAnalyze the following %s:\n%s", schemaPrompt, subject, input.Transcript)
	return systemPrompt, user
}
