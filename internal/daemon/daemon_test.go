package daemon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"callaudit/internal/api"
	"callaudit/internal/daemon"
	"callaudit/internal/logging"
	"callaudit/internal/pipeline"
	"callaudit/internal/records"
	"callaudit/internal/testsupport"
)

type noopHandler struct{}

func (noopHandler) Stage() records.Stage { return records.StageTranscription }

func (noopHandler) Execute(context.Context, *records.CallRecord) error { return nil }

func (noopHandler) HealthCheck(context.Context) pipeline.Health {
	return pipeline.Healthy("transcription")
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *records.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	supervisor := pipeline.NewSupervisor(logger,
		pipeline.NewWorker(store, noopHandler{}, cfg, logger))

	d, err := daemon.New(cfg, store, logger, supervisor)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start should fail while running")
	}

	status := d.Status(ctx)
	if !status.Running || !status.PipelineRunning {
		t.Fatalf("status = %+v", status)
	}
	if len(status.WorkerHealth) != 1 || !status.WorkerHealth[0].Ready {
		t.Fatalf("worker health = %+v", status.WorkerHealth)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("daemon still reports running after Stop")
	}
}

func TestDaemonServesStatusOverHTTP(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	addr := d.APIAddr()
	if addr == "" {
		t.Fatal("expected a bound API address")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/status", addr))
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || !status.Pipeline.Running {
		t.Fatalf("status payload = %+v", status)
	}
	if status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("expected populated paths: %+v", status)
	}

	metricsResp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer metricsResp.Body.Close()
	if metricsResp.StatusCode != http.StatusOK {
		t.Fatalf("metrics endpoint returned %d", metricsResp.StatusCode)
	}
}

func TestDaemonAcceptsWebhookDeliveries(t *testing.T) {
	d, store := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	body := `{
		"event": "recording.completed",
		"payload": {"object": {
			"call_id": "call-e2e",
			"download_url": "https://recordings.example.com/call-e2e.mp3"
		}}
	}`
	url := fmt.Sprintf("http://%s/webhook/recording", d.APIAddr())
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST empty body: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty delivery should be rejected, got %d", resp.StatusCode)
	}

	resp, err = http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST webhook: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	record, err := store.GetByCallID(ctx, "call-e2e")
	if err != nil {
		t.Fatalf("GetByCallID: %v", err)
	}
	if record == nil {
		t.Fatal("expected webhook delivery to create a record")
	}
}
