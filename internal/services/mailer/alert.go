package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
)

// Alert carries the call fields rendered into a warning email.
type Alert struct {
	CallID          string
	AgentName       string
	Department      string
	FromNumber      string
	Score           int
	Sentiment       string
	Summary         string
	WarningReasons  []string
	CallTime        *time.Time
	DurationSeconds int
}

const maxSubjectReasonChars = 80

// BuildSubject renders the alert subject line with at most three warning
// reasons, truncated to keep mail clients happy.
func BuildSubject(alert Alert) string {
	agent := strings.TrimSpace(alert.AgentName)
	if agent == "" {
		agent = "Agent"
	}
	reasons := cleanReasons(alert.WarningReasons)
	if len(reasons) == 0 {
		return fmt.Sprintf("Call Alert - %s", agent)
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	joined := strings.Join(reasons, ", ")
	if runes := []rune(joined); len(runes) > maxSubjectReasonChars {
		joined = string(runes[:maxSubjectReasonChars])
	}
	return fmt.Sprintf("Call Alert - %s - %s", agent, joined)
}

// BuildHTMLBody renders the styled alert body. Every record-sourced string is
// escaped before interpolation.
func BuildHTMLBody(alert Alert) string {
	var sb strings.Builder
	sb.WriteString(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">`)
	sb.WriteString(`<div style="background:#c0392b;color:#fff;padding:16px 20px;border-radius:6px 6px 0 0">`)
	sb.WriteString(`<h2 style="margin:0">Call Quality Alert</h2></div>`)
	sb.WriteString(`<div style="border:1px solid #ddd;border-top:0;padding:20px;border-radius:0 0 6px 6px">`)

	sb.WriteString(`<table style="width:100%;border-collapse:collapse">`)
	writeRow(&sb, "Agent", alert.AgentName)
	writeRow(&sb, "Call ID", alert.CallID)
	writeRow(&sb, "Department", alert.Department)
	writeRow(&sb, "Caller", alert.FromNumber)
	if alert.CallTime != nil {
		writeRow(&sb, "Call time", alert.CallTime.UTC().Format(time.RFC1123))
	}
	if alert.DurationSeconds > 0 {
		writeRow(&sb, "Duration", formatDuration(alert.DurationSeconds))
	}
	writeRow(&sb, "Score", fmt.Sprintf("%d / 5", alert.Score))
	writeRow(&sb, "Sentiment", alert.Sentiment)
	sb.WriteString(`</table>`)

	reasons := cleanReasons(alert.WarningReasons)
	if len(reasons) > 0 {
		sb.WriteString(`<h3 style="color:#c0392b;margin-bottom:4px">Warnings</h3><ul style="margin-top:4px">`)
		for _, reason := range reasons {
			sb.WriteString("<li>")
			sb.WriteString(html.EscapeString(reason))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}

	if summary := strings.TrimSpace(alert.Summary); summary != "" {
		sb.WriteString(`<h3 style="margin-bottom:4px">Summary</h3><p style="margin-top:4px">`)
		sb.WriteString(html.EscapeString(summary))
		sb.WriteString("</p>")
	}

	sb.WriteString(`</div></div>`)
	return sb.String()
}

// BuildTextBody renders the plain-text fallback.
func BuildTextBody(alert Alert) string {
	var sb strings.Builder
	sb.WriteString("CALL QUALITY ALERT\n\n")
	writeTextLine(&sb, "Agent", alert.AgentName)
	writeTextLine(&sb, "Call ID", alert.CallID)
	writeTextLine(&sb, "Department", alert.Department)
	writeTextLine(&sb, "Caller", alert.FromNumber)
	if alert.CallTime != nil {
		writeTextLine(&sb, "Call time", alert.CallTime.UTC().Format(time.RFC1123))
	}
	if alert.DurationSeconds > 0 {
		writeTextLine(&sb, "Duration", formatDuration(alert.DurationSeconds))
	}
	writeTextLine(&sb, "Score", fmt.Sprintf("%d / 5", alert.Score))
	writeTextLine(&sb, "Sentiment", alert.Sentiment)

	if reasons := cleanReasons(alert.WarningReasons); len(reasons) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, reason := range reasons {
			sb.WriteString("  - " + reason + "\n")
		}
	}
	if summary := strings.TrimSpace(alert.Summary); summary != "" {
		sb.WriteString("\nSummary:\n" + summary + "\n")
	}
	return sb.String()
}

// SendAlert renders and delivers a warning alert, returning the provider's
// message identifier.
func (c *Client) SendAlert(ctx context.Context, alert Alert) (string, error) {
	return c.Send(ctx, BuildSubject(alert), BuildHTMLBody(alert), BuildTextBody(alert))
}

func writeRow(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(sb,
		`<tr><td style="padding:4px 8px;color:#666">%s</td><td style="padding:4px 8px">%s</td></tr>`,
		html.EscapeString(label), html.EscapeString(value))
}

func writeTextLine(sb *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}

func cleanReasons(reasons []string) []string {
	cleaned := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
