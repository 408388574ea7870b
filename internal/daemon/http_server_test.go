package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"callaudit/internal/api"
	"callaudit/internal/testsupport"
)

func newTestServer(t *testing.T) *apiServer {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return &apiServer{callSvc: api.NewCallService(store)}
}

func TestAPIServerHandleCalls(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{callSvc: api.NewCallService(store)}
	testsupport.NewCall(t, store, "call-api-1")
	testsupport.NewCall(t, store, "call-api-2")

	req := httptest.NewRequest(http.MethodGet, "/api/calls?limit=1", nil)
	w := httptest.NewRecorder()
	srv.handleCalls(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.CallListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(resp.Calls))
	}
	if resp.Total != 2 {
		t.Fatalf("expected total 2, got %d", resp.Total)
	}
}

func TestAPIServerHandleCallsRejectsBadFilter(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/calls?alert_status=bogus", nil)
	w := httptest.NewRecorder()
	srv.handleCalls(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIServerHandleCall(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{callSvc: api.NewCallService(store)}
	record := testsupport.NewCall(t, store, "call-detail")

	req := httptest.NewRequest(http.MethodGet, "/api/calls/"+record.ID, nil)
	w := httptest.NewRecorder()
	srv.handleCall(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.CallResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Call.CallID != "call-detail" {
		t.Fatalf("unexpected call id: %q", resp.Call.CallID)
	}

	missing := httptest.NewRecorder()
	srv.handleCall(missing, httptest.NewRequest(http.MethodGet, "/api/calls/unknown", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown call, got %d", missing.Code)
	}
}

func TestAPIServerHandleRetry(t *testing.T) {
	srv := newTestServer(t)

	wrongMethod := httptest.NewRecorder()
	srv.handleCall(wrongMethod, httptest.NewRequest(http.MethodGet, "/api/calls/some-id/retry", nil))
	if wrongMethod.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", wrongMethod.Code)
	}

	notFound := httptest.NewRecorder()
	srv.handleCall(notFound, httptest.NewRequest(http.MethodPost, "/api/calls/unknown/retry", nil))
	if notFound.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", notFound.Code)
	}

	badStage := httptest.NewRecorder()
	srv.handleCall(badStage, httptest.NewRequest(http.MethodPost, "/api/calls/unknown/retry?stage=ripping", nil))
	if badStage.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage, got %d", badStage.Code)
	}
}

func TestAPIServerHandleStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv := &apiServer{callSvc: api.NewCallService(store)}
	testsupport.NewCall(t, store, "call-stats")

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	srv.handleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected total 1, got %d", resp.Total)
	}
	if resp.Transcription.Pending != 1 {
		t.Fatalf("expected 1 pending transcription, got %d", resp.Transcription.Pending)
	}
}

func TestAPIServerHandleWorkersEmpty(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/workers", nil)
	w := httptest.NewRecorder()
	srv.handleWorkers(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.WorkersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Workers) != 0 {
		t.Fatalf("expected no workers, got %d", len(resp.Workers))
	}
}
