package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callaudit/internal/api"
)

func runCommand(t *testing.T, server *httptest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--api", server.URL))
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsCommandRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(api.Stats{
			Total:         7,
			Warnings:      2,
			AverageScore:  3.6,
			CallsToday:    3,
			CallsThisWeek: 7,
			Sentiments:    map[string]int{"negative": 2, "positive": 4},
			Transcription: api.StageCounts{
				Success: 6,
				Failed:  1,
			},
		})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "stats")
	if err != nil {
		t.Fatalf("stats command: %v", err)
	}
	if !strings.Contains(out, "Calls: 7") || !strings.Contains(out, "Average score: 3.6") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Today: 3") || !strings.Contains(out, "positive 4   negative 2") {
		t.Fatalf("expected recency and sentiment lines in output:\n%s", out)
	}
	if !strings.Contains(out, "transcription") {
		t.Fatalf("expected stage rows in output:\n%s", out)
	}
}

func TestCallsCommandForwardsFilters(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(api.CallListResponse{
			Calls: []api.Call{{
				ID:         "0c9d2f1a-aaaa-bbbb-cccc-000000000001",
				CallID:     "call-1",
				AgentName:  "Dana Agent",
				Score:      2,
				Sentiment:  "negative",
				HasWarning: true,
				Transcription: api.StageState{Status: "success"},
				Analysis:      api.StageState{Status: "success"},
				Alert:         api.StageState{Status: "success"},
			}},
			Total: 1,
		})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "calls", "--warnings", "--sentiment", "negative", "--limit", "10")
	if err != nil {
		t.Fatalf("calls command: %v", err)
	}
	if !strings.Contains(gotQuery, "warnings_only=1") || !strings.Contains(gotQuery, "sentiment=negative") {
		t.Fatalf("query = %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "limit=10") {
		t.Fatalf("query = %q", gotQuery)
	}
	if !strings.Contains(out, "call-1") || !strings.Contains(out, "Dana Agent") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestCallsCommandEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(api.CallListResponse{})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "calls")
	if err != nil {
		t.Fatalf("calls command: %v", err)
	}
	if !strings.Contains(out, "No calls match") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestRetryCommandReportsDaemonError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "call not found"})
	}))
	defer server.Close()

	_, err := runCommand(t, server, "retry", "missing-id")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "call not found") {
		t.Fatalf("error = %v", err)
	}
}

func TestShowCommandJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/calls/") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(api.CallResponse{Call: api.Call{
			ID:     "rec-1",
			CallID: "call-9",
			Score:  5,
		}})
	}))
	defer server.Close()

	out, err := runCommand(t, server, "show", "call-9", "--json")
	if err != nil {
		t.Fatalf("show command: %v", err)
	}
	var resp api.CallResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Call.CallID != "call-9" || resp.Call.Score != 5 {
		t.Fatalf("unexpected payload: %+v", resp.Call)
	}
}
