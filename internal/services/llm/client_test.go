package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestScoreTranscriptParsesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		messages := payload["messages"].([]any)
		user := messages[1].(map[string]any)["content"].(string)
		if !strings.Contains(user, "=== CALL TRANSCRIPT ===") {
			t.Errorf("transcript not embedded in user message: %q", user)
		}
		json.NewEncoder(w).Encode(completionBody("```json\n" + `{
            "overall_score": 9,
            "has_warning": true,
            "warning_reasons": [" customer_angry ", ""],
            "short_summary": "  Customer was upset.  ",
            "customer_sentiment": "NEGATIVE",
            "department": " Billing "
        }` + "\n```"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"})
	result, err := client.ScoreTranscript(context.Background(), "", "Agent: hello\nCustomer: I am upset", "en", "Dana")
	if err != nil {
		t.Fatalf("ScoreTranscript: %v", err)
	}
	if result.Score != 5 {
		t.Fatalf("expected clamped score 5, got %d", result.Score)
	}
	if !result.HasWarning || len(result.WarningReasons) != 1 || result.WarningReasons[0] != "customer_angry" {
		t.Fatalf("unexpected warnings: %#v", result.WarningReasons)
	}
	if result.Summary != "Customer was upset." {
		t.Fatalf("unexpected summary: %q", result.Summary)
	}
	if result.Sentiment != "negative" {
		t.Fatalf("unexpected sentiment: %q", result.Sentiment)
	}
	if result.Department != "billing" {
		t.Fatalf("unexpected department: %q", result.Department)
	}
}

func TestScoreTranscriptRejectsShortTranscript(t *testing.T) {
	client := NewClient(Config{APIKey: "key"})
	if _, err := client.ScoreTranscript(context.Background(), "", "hi", "", ""); err == nil {
		t.Fatal("expected error for short transcript")
	}
}

func TestScoreTranscriptDefaultsWarningReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`{
            "overall_score": 2,
            "has_warning": true,
            "warning_reasons": [],
            "short_summary": "Bad call.",
            "customer_sentiment": "negative",
            "department": "support"
        }`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	result, err := client.ScoreTranscript(context.Background(), "", "Agent: hello\nCustomer: no thanks", "", "")
	if err != nil {
		t.Fatalf("ScoreTranscript: %v", err)
	}
	if len(result.WarningReasons) != 1 || result.WarningReasons[0] != "unspecified" {
		t.Fatalf("expected defaulted warning reason, got %#v", result.WarningReasons)
	}
}

func TestCompleteJSONSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected http error")
	}
	if IsRejected(err) {
		t.Fatal("rate limit must not classify as rejected")
	}
}

func TestDecodeJSONHandlesFencesAndProse(t *testing.T) {
	var target struct {
		OK bool `json:"ok"`
	}
	cases := []string{
		`{"ok": true}`,
		"```json\n{\"ok\": true}\n```",
		"Here is the result: {\"ok\": true} hope that helps",
	}
	for _, content := range cases {
		target.OK = false
		if err := DecodeJSON(content, &target); err != nil {
			t.Fatalf("DecodeJSON(%q): %v", content, err)
		}
		if !target.OK {
			t.Fatalf("DecodeJSON(%q) did not populate target", content)
		}
	}
	if err := DecodeJSON("no json here", &target); err == nil {
		t.Fatal("expected error for non-JSON payload")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completionBody(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
