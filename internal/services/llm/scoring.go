package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultScoringPrompt instructs the model to grade agent performance and
// emit the scoring schema as strict JSON. Deployments can override it via
// configuration; overly long overrides are rejected at config validation.
const DefaultScoringPrompt = `You are an expert call center quality analyst reviewing a transcript of a recorded customer call.

TASK: Evaluate the AGENT's performance and respond with a JSON object.

SCORING (1-5):
5 = Excellent: professional, helpful, satisfied customer
4 = Good: professional with minor gaps
3 = Average: adequate but noticeable issues
2 = Below Average: unprofessional or unhelpful
1 = Poor: major issues

WARNING FLAGS (include only when applicable):
rude_agent, unresolved_issue, customer_angry, lack_of_empathy, escalation_needed

RULES:
- Judge the AGENT's behavior, not the customer's.
- Summary in English, 1-3 sentences.
- Respond with JSON only, no prose.

OUTPUT SCHEMA:
{
  "overall_score": 3,
  "has_warning": false,
  "warning_reasons": [],
  "short_summary": "Brief summary here.",
  "customer_sentiment": "neutral",
  "department": "support"
}`

const (
	minTranscriptChars = 10
	maxSummaryChars    = 500
)

// Scoring is the validated result of grading one transcript.
type Scoring struct {
	Score          int      `json:"overall_score"`
	HasWarning     bool     `json:"has_warning"`
	WarningReasons []string `json:"warning_reasons"`
	Summary        string   `json:"short_summary"`
	Sentiment      string   `json:"customer_sentiment"`
	Department     string   `json:"department"`
	Raw            string   `json:"-"`
}

// ScoreTranscript grades a call transcript and returns the normalized result.
// The prompt argument overrides DefaultScoringPrompt when non-empty.
func (c *Client) ScoreTranscript(ctx context.Context, prompt, transcript, language, agentName string) (*Scoring, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return nil, errors.New("llm score: transcript too short for analysis")
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultScoringPrompt
	}

	content, err := c.CompleteJSON(ctx, prompt, buildTranscriptMessage(transcript, language, agentName))
	if err != nil {
		return nil, err
	}

	var parsed Scoring
	if err := DecodeJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("llm score: parse payload: %w", err)
	}
	parsed.Raw = content
	normalizeScoring(&parsed)
	return &parsed, nil
}

func buildTranscriptMessage(transcript, language, agentName string) string {
	var sb strings.Builder
	if language = strings.TrimSpace(language); language != "" {
		fmt.Fprintf(&sb, "Language: %s\n", language)
	}
	if agentName = strings.TrimSpace(agentName); agentName != "" {
		fmt.Fprintf(&sb, "Agent: %s\n", agentName)
	}
	sb.WriteString("\n=== CALL TRANSCRIPT ===\n")
	sb.WriteString(strings.TrimSpace(transcript))
	sb.WriteString("\n=== END TRANSCRIPT ===\n")
	return sb.String()
}

// normalizeScoring clamps and defaults model output so downstream code never
// sees an out-of-range score or unknown sentiment.
func normalizeScoring(result *Scoring) {
	if result.Score < 1 {
		result.Score = 1
	}
	if result.Score > 5 {
		result.Score = 5
	}

	switch strings.ToLower(strings.TrimSpace(result.Sentiment)) {
	case "positive":
		result.Sentiment = "positive"
	case "negative":
		result.Sentiment = "negative"
	default:
		result.Sentiment = "neutral"
	}

	reasons := make([]string, 0, len(result.WarningReasons))
	for _, reason := range result.WarningReasons {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			reasons = append(reasons, trimmed)
		}
	}
	result.WarningReasons = reasons
	if result.HasWarning && len(result.WarningReasons) == 0 {
		result.WarningReasons = []string{"unspecified"}
	}

	result.Summary = strings.TrimSpace(result.Summary)
	if result.Summary == "" {
		result.Summary = "No summary available."
	}
	if runes := []rune(result.Summary); len(runes) > maxSummaryChars {
		result.Summary = string(runes[:maxSummaryChars])
	}

	result.Department = strings.ToLower(strings.TrimSpace(result.Department))
	if result.Department == "" {
		result.Department = "unknown"
	}
}
