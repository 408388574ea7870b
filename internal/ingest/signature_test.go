package ingest

import "testing"

func TestVerifySignatureAcceptsBothForms(t *testing.T) {
	body := []byte(`{"event":"recording.completed"}`)
	secret := "hush"
	ts := "1714000000"

	digest := ComputeSignature(secret, ts, body)
	if digest == "" {
		t.Fatal("expected a non-empty digest")
	}

	if !VerifySignature(secret, ts, digest, body) {
		t.Error("bare digest should verify")
	}
	if !VerifySignature(secret, ts, "v0="+digest, body) {
		t.Error("prefixed digest should verify")
	}
	if !VerifySignature(secret, ts, "  v0="+digest+" ", body) {
		t.Error("surrounding whitespace should be tolerated")
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	body := []byte(`{"event":"recording.completed"}`)
	digest := ComputeSignature("hush", "1714000000", body)

	cases := []struct {
		name      string
		secret    string
		timestamp string
		signature string
		body      []byte
	}{
		{"wrong secret", "other", "1714000000", digest, body},
		{"wrong timestamp", "hush", "1714000001", digest, body},
		{"tampered body", "hush", "1714000000", digest, []byte(`{"event":"x"}`)},
		{"empty signature", "hush", "1714000000", "", body},
		{"empty secret", "", "1714000000", digest, body},
	}
	for _, tc := range cases {
		if VerifySignature(tc.secret, tc.timestamp, tc.signature, tc.body) {
			t.Errorf("%s: signature unexpectedly verified", tc.name)
		}
	}
}

func TestChallengeTokenIsDeterministic(t *testing.T) {
	a := ChallengeToken("hush", "abc123")
	b := ChallengeToken("hush", "abc123")
	if a != b {
		t.Fatalf("challenge token not deterministic: %s vs %s", a, b)
	}
	if a == ChallengeToken("other", "abc123") {
		t.Fatal("different secrets must produce different tokens")
	}
	if len(a) != 64 {
		t.Fatalf("expected a hex sha256 digest, got %d chars", len(a))
	}
}
