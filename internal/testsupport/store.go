package testsupport

import (
	"context"
	"fmt"
	"testing"

	"callaudit/internal/config"
	"callaudit/internal/records"
)

// MustOpenStore opens a records.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()

	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("records.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewCall inserts a fresh call record for tests using the provided store.
func NewCall(t testing.TB, store *records.Store, callID string) *records.CallRecord {
	t.Helper()

	record, inserted, err := store.Insert(context.Background(), records.NewCall{
		CallID:       callID,
		RecordingURL: fmt.Sprintf("https://recordings.example.com/%s.mp3", callID),
		FromNumber:   "+15550100",
		ToNumber:     "+15550200",
		AgentName:    "Test Agent",
	})
	if err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected %s to be a new record", callID)
	}
	return record
}

// MustClaim claims the next record for a stage and fails the test when no
// record is eligible.
func MustClaim(t testing.TB, store *records.Store, stage records.Stage) *records.CallRecord {
	t.Helper()

	record, err := store.ClaimNext(context.Background(), stage)
	if err != nil {
		t.Fatalf("ClaimNext(%s): %v", stage, err)
	}
	if record == nil {
		t.Fatalf("expected a claimable record for stage %s", stage)
	}
	return record
}
