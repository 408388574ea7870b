package analyze_test

import (
	"context"
	"errors"
	"testing"

	"callaudit/internal/analyze"
	"callaudit/internal/logging"
	"callaudit/internal/records"
	"callaudit/internal/services"
	"callaudit/internal/services/llm"
	"callaudit/internal/testsupport"
)

type stubLLM struct {
	scoring   *llm.Scoring
	err       error
	healthErr error
	gotText   string
	gotAgent  string
}

func (s *stubLLM) ScoreTranscript(ctx context.Context, prompt, transcript, language, agentName string) (*llm.Scoring, error) {
	s.gotText = transcript
	s.gotAgent = agentName
	return s.scoring, s.err
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return s.healthErr }

func transcribedCall(t *testing.T, store *records.Store, callID, transcript string) *records.CallRecord {
	t.Helper()
	ctx := context.Background()
	record := testsupport.NewCall(t, store, callID)
	testsupport.MustClaim(t, store, records.StageTranscription)
	if err := store.CompleteTranscription(ctx, record.ID, transcript, "en"); err != nil {
		t.Fatalf("CompleteTranscription: %v", err)
	}
	return testsupport.MustClaim(t, store, records.StageAnalysis)
}

func TestExecutePersistsScoring(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	claimed := transcribedCall(t, store, "call-1", "Agent: hello\nCustomer: I want to cancel")

	stub := &stubLLM{scoring: &llm.Scoring{
		Score:          2,
		HasWarning:     true,
		WarningReasons: []string{"unresolved_issue"},
		Summary:        "Customer wanted to cancel; agent did not resolve.",
		Sentiment:      "negative",
		Department:     "retention",
	}}
	handler := analyze.NewWithClient(store, stub, logging.NewNop())

	if err := handler.Execute(context.Background(), claimed); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stub.gotText != claimed.Transcript {
		t.Fatalf("transcript not passed to model: %q", stub.gotText)
	}

	updated, err := store.GetByID(context.Background(), claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Analysis.Status != records.StatusSuccess {
		t.Fatalf("expected success, got %s", updated.Analysis.Status)
	}
	if updated.Score != 2 || updated.Sentiment != "negative" || !updated.HasWarning {
		t.Fatalf("unexpected stored result: %#v", updated)
	}
	if updated.Department != "retention" {
		t.Fatalf("expected department stored, got %q", updated.Department)
	}
	if updated.Alert.Status != records.StatusPending {
		t.Fatalf("warning call should leave alert pending, got %s", updated.Alert.Status)
	}
}

func TestExecuteCleanCallSkipsAlert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	claimed := transcribedCall(t, store, "call-2", "Agent: hello\nCustomer: thanks, all good")

	stub := &stubLLM{scoring: &llm.Scoring{
		Score:     5,
		Summary:   "Routine call.",
		Sentiment: "positive",
	}}
	handler := analyze.NewWithClient(store, stub, logging.NewNop())

	if err := handler.Execute(context.Background(), claimed); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	updated, err := store.GetByID(context.Background(), claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Alert.Status != records.StatusNotNeeded {
		t.Fatalf("expected alert not_needed, got %s", updated.Alert.Status)
	}
}

func TestExecuteMissingTranscriptIsPermanent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	record := testsupport.NewCall(t, store, "call-3")

	handler := analyze.NewWithClient(store, &stubLLM{}, logging.NewNop())
	err := handler.Execute(context.Background(), record)
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsPermanent(err) {
		t.Fatalf("missing transcript should be permanent: %v", err)
	}
}

func TestExecuteModelOutageIsTransient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	claimed := transcribedCall(t, store, "call-4", "Agent: hello\nCustomer: hello again")

	handler := analyze.NewWithClient(store, &stubLLM{err: errors.New("bad gateway")}, logging.NewNop())
	err := handler.Execute(context.Background(), claimed)
	if err == nil {
		t.Fatal("expected error")
	}
	if services.IsPermanent(err) {
		t.Fatalf("model outage must stay retryable: %v", err)
	}
}
