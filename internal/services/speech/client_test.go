package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTranscribeSubmitsAndPolls(t *testing.T) {
	var polls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key" {
			t.Errorf("missing authorization header")
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode submit payload: %v", err)
			}
			if payload["audio_url"] != "https://recordings.example.com/a.mp3" {
				t.Errorf("unexpected audio_url: %v", payload["audio_url"])
			}
			if payload["speaker_labels"] != true {
				t.Error("expected speaker_labels enabled")
			}
			json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/transcript/job-1":
			if polls.Add(1) == 1 {
				json.NewEncoder(w).Encode(map[string]any{"id": "job-1", "status": "processing"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":             "job-1",
				"status":         "completed",
				"text":           "hello how can I help thanks bye",
				"language_code":  "en",
				"audio_duration": 42.5,
				"utterances": []map[string]any{
					{"speaker": "A", "text": "hello"},
					{"speaker": "A", "text": "how can I help"},
					{"speaker": "B", "text": "thanks bye"},
				},
			})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithPollDelay(time.Millisecond))
	transcript, err := client.Transcribe(context.Background(), "https://recordings.example.com/a.mp3", "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	want := "Agent: hello how can I help\nCustomer: thanks bye"
	if transcript.Text != want {
		t.Fatalf("unexpected transcript:\n%q\nwant\n%q", transcript.Text, want)
	}
	if transcript.LanguageCode != "en" {
		t.Fatalf("unexpected language: %q", transcript.LanguageCode)
	}
	if transcript.DurationSeconds != 42.5 {
		t.Fatalf("unexpected duration: %f", transcript.DurationSeconds)
	}
}

func TestTranscribeReportsJobError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{"id": "job-err", "status": "queued"})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "job-err",
				"status": "error",
				"error":  "download failed",
			})
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL}, WithPollDelay(time.Millisecond))
	if _, err := client.Transcribe(context.Background(), "https://recordings.example.com/a.mp3", "en"); err == nil {
		t.Fatal("expected job error")
	}
}

func TestIsRejectedClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusNotFound, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		err := &httpStatusError{StatusCode: tc.status}
		if got := IsRejected(err); got != tc.want {
			t.Fatalf("IsRejected(%d) = %v, want %v", tc.status, got, tc.want)
		}
	}
	if IsRejected(context.DeadlineExceeded) {
		t.Fatal("non-http errors must not classify as rejected")
	}
}

func TestNormalizeSegmentsFallsBackToFlatText(t *testing.T) {
	if got := normalizeSegments(nil, "  plain text  "); got != "plain text" {
		t.Fatalf("unexpected fallback: %q", got)
	}
}

func TestTranscribeRequiresInputs(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Transcribe(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for missing recording url")
	}
	if _, err := client.Transcribe(context.Background(), "https://x.example.com/a.mp3", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
