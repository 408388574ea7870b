package alert_test

import (
	"context"
	"errors"
	"testing"

	"callaudit/internal/alert"
	"callaudit/internal/logging"
	"callaudit/internal/records"
	"callaudit/internal/services"
	"callaudit/internal/services/mailer"
	"callaudit/internal/testsupport"
)

type stubMailer struct {
	id        string
	err       error
	healthErr error
	got       mailer.Alert
	calls     int
}

func (s *stubMailer) SendAlert(ctx context.Context, a mailer.Alert) (string, error) {
	s.calls++
	s.got = a
	return s.id, s.err
}

func (s *stubMailer) HealthCheck(ctx context.Context) error { return s.healthErr }

func warnedCall(t *testing.T, store *records.Store, callID string) *records.CallRecord {
	t.Helper()
	ctx := context.Background()
	record := testsupport.NewCall(t, store, callID)
	testsupport.MustClaim(t, store, records.StageTranscription)
	if err := store.CompleteTranscription(ctx, record.ID, "Agent: hello\nCustomer: terrible service", "en"); err != nil {
		t.Fatalf("CompleteTranscription: %v", err)
	}
	testsupport.MustClaim(t, store, records.StageAnalysis)
	if err := store.CompleteAnalysis(ctx, record.ID, records.AnalysisResult{
		Score:          1,
		Summary:        "Customer extremely dissatisfied.",
		Sentiment:      records.SentimentNegative,
		HasWarning:     true,
		WarningReasons: []string{"customer_angry"},
	}); err != nil {
		t.Fatalf("CompleteAnalysis: %v", err)
	}
	return testsupport.MustClaim(t, store, records.StageAlert)
}

func TestExecuteSendsAlertAndCompletes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	claimed := warnedCall(t, store, "call-1")

	stub := &stubMailer{id: "msg-1"}
	handler := alert.NewWithClient(store, stub, logging.NewNop())

	if err := handler.Execute(context.Background(), claimed); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stub.got.CallID != "call-1" || stub.got.Score != 1 {
		t.Fatalf("unexpected alert payload: %#v", stub.got)
	}
	if len(stub.got.WarningReasons) != 1 || stub.got.WarningReasons[0] != "customer_angry" {
		t.Fatalf("warning reasons not forwarded: %#v", stub.got.WarningReasons)
	}

	updated, err := store.GetByID(context.Background(), claimed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Alert.Status != records.StatusSuccess {
		t.Fatalf("expected success, got %s", updated.Alert.Status)
	}
	if updated.AlertSentAt == nil {
		t.Fatal("expected alert_sent_at recorded")
	}
}

func TestExecuteProviderOutageIsTransient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	claimed := warnedCall(t, store, "call-2")

	handler := alert.NewWithClient(store, &stubMailer{err: errors.New("gateway timeout")}, logging.NewNop())
	err := handler.Execute(context.Background(), claimed)
	if err == nil {
		t.Fatal("expected error")
	}
	if services.IsPermanent(err) {
		t.Fatalf("provider outage must stay retryable: %v", err)
	}

	updated, getErr := store.GetByID(context.Background(), claimed.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if updated.Alert.Status != records.StatusProcessing {
		t.Fatalf("handler must not release the claim itself, got %s", updated.Alert.Status)
	}
}

func TestHealthCheckReflectsClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	handler := alert.NewWithClient(store, &stubMailer{healthErr: errors.New("401")}, logging.NewNop())
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy")
	}
}
