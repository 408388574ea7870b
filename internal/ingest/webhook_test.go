package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"callaudit/internal/config"
	"callaudit/internal/records"
	"callaudit/internal/testsupport"
)

func newTestHandler(t *testing.T, opts ...testsupport.ConfigOption) (*Handler, *records.Store, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	return NewHandler(store, cfg, nil), store, cfg
}

func recordingBody(callID string) []byte {
	payload := fmt.Sprintf(`{
		"event": "recording.completed",
		"payload": {
			"object": {
				"call_id": %q,
				"download_url": "https://recordings.example.com/%s.mp3",
				"duration": 245,
				"date_time": "2025-06-01T14:30:00Z",
				"direction": "inbound",
				"caller": {"phone_number": "+15550100", "name": "Pat Customer"},
				"callee": {"phone_number": "+15550200", "name": "Dana Agent", "extension_number": "104", "department": "support"}
			}
		}
	}`, callID, callID)
	return []byte(payload)
}

func postWebhook(h *Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/recording", bytes.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestWebhookRecordingCompletedCreatesRecord(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	rec := postWebhook(handler, recordingBody("call-100"), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp["status"] != "accepted" {
		t.Fatalf("expected accepted, got %q", resp["status"])
	}
	if resp["record_id"] == "" {
		t.Fatal("expected a record id in the response")
	}

	record, err := store.GetByCallID(context.Background(), "call-100")
	if err != nil {
		t.Fatalf("GetByCallID: %v", err)
	}
	if record == nil {
		t.Fatal("expected the call record to exist")
	}
	if record.Transcription.Status != records.StatusPending {
		t.Errorf("transcription status = %s, want pending", record.Transcription.Status)
	}
	if record.AgentName != "Dana Agent" {
		t.Errorf("agent name = %q", record.AgentName)
	}
	if record.Department != "support" {
		t.Errorf("department = %q", record.Department)
	}
	if record.FromNumber != "+15550100" {
		t.Errorf("from number = %q", record.FromNumber)
	}
	if record.CallTime == nil {
		t.Error("expected call time to be parsed")
	}
	if record.DurationSeconds != 245 {
		t.Errorf("duration = %d, want 245", record.DurationSeconds)
	}
	if record.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestWebhookRedeliveryIsSkipped(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	first := postWebhook(handler, recordingBody("call-dup"), nil)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery: %d", first.Code)
	}

	second := postWebhook(handler, recordingBody("call-dup"), nil)
	if second.Code != http.StatusOK {
		t.Fatalf("redelivery: %d", second.Code)
	}
	resp := decodeResponse(t, second)
	if resp["status"] != "skipped" {
		t.Fatalf("expected skipped, got %q", resp["status"])
	}

	count, err := store.Count(context.Background(), records.ListFilter{Search: "call-dup"})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single record, got %d", count)
	}
}

func TestWebhookMissingRecordingURL(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	body := []byte(`{"event": "recording.completed", "payload": {"object": {"call_id": "call-nourl"}}}`)
	rec := postWebhook(handler, body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookRecordingFileFallback(t *testing.T) {
	handler, store, _ := newTestHandler(t)

	body := []byte(`{
		"event": "recording.completed",
		"payload": {
			"object": {
				"id": "obj-7",
				"recording_file": {"download_url": "https://recordings.example.com/obj-7.mp3"},
				"callee": {"extension_number": "212"}
			}
		}
	}`)
	rec := postWebhook(handler, body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	record, err := store.GetByCallID(context.Background(), "obj-7")
	if err != nil {
		t.Fatalf("GetByCallID: %v", err)
	}
	if record == nil {
		t.Fatal("expected object id to serve as the call id")
	}
	if record.RecordingURL != "https://recordings.example.com/obj-7.mp3" {
		t.Errorf("recording url = %q", record.RecordingURL)
	}
	if record.AgentName != "212" {
		t.Errorf("agent name = %q, want extension fallback", record.AgentName)
	}
}

func TestWebhookURLValidationChallenge(t *testing.T) {
	handler, _, cfg := newTestHandler(t, testsupport.WithWebhookSecret("hush"))

	body := []byte(`{"event": "endpoint.url_validation", "payload": {"plainToken": "tok-42"}}`)
	// No signature headers: challenges arrive before the secret handshake
	// completes, so they are answered unauthenticated.
	rec := postWebhook(handler, body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp["plainToken"] != "tok-42" {
		t.Errorf("plainToken = %q", resp["plainToken"])
	}
	if want := ChallengeToken(cfg.Webhook.SecretToken, "tok-42"); resp["encryptedToken"] != want {
		t.Errorf("encryptedToken = %q, want %q", resp["encryptedToken"], want)
	}
}

func TestWebhookSignatureEnforcement(t *testing.T) {
	handler, store, cfg := newTestHandler(t, testsupport.WithWebhookSecret("hush"))
	body := recordingBody("call-signed")
	timestamp := "1714000000"

	unsigned := postWebhook(handler, body, nil)
	if unsigned.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned delivery: expected 401, got %d", unsigned.Code)
	}

	forged := postWebhook(handler, body, map[string]string{
		TimestampHeader: timestamp,
		SignatureHeader: "v0=" + strings.Repeat("0", 64),
	})
	if forged.Code != http.StatusUnauthorized {
		t.Fatalf("forged delivery: expected 401, got %d", forged.Code)
	}
	if record, err := store.GetByCallID(context.Background(), "call-signed"); err != nil || record != nil {
		t.Fatalf("rejected delivery must not create a record (record=%v err=%v)", record, err)
	}

	signed := postWebhook(handler, body, map[string]string{
		TimestampHeader: timestamp,
		SignatureHeader: ComputeSignature(cfg.Webhook.SecretToken, timestamp, body),
	})
	if signed.Code != http.StatusOK {
		t.Fatalf("signed delivery: expected 200, got %d: %s", signed.Code, signed.Body.String())
	}
	resp := decodeResponse(t, signed)
	if resp["status"] != "accepted" {
		t.Fatalf("signed delivery status = %q", resp["status"])
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	rec := postWebhook(handler, []byte(`{"event": "phone.caller_ringing", "payload": {}}`), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeResponse(t, rec)
	if resp["status"] != "ignored" {
		t.Fatalf("expected ignored, got %q", resp["status"])
	}
}

func TestWebhookRejectsBadRequests(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	get := httptest.NewRecorder()
	handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/webhook/recording", nil))
	if get.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", get.Code)
	}
	if allow := get.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow header = %q", allow)
	}

	malformed := postWebhook(handler, []byte("{not json"), nil)
	if malformed.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", malformed.Code)
	}
}
