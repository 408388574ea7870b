package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader and TimestampHeader carry the provider's request signature.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"
)

// ComputeSignature returns the hex HMAC-SHA256 digest of "v0:{ts}:{body}".
func ComputeSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a delivery signature in constant time. Both the
// bare digest and the "v0="-prefixed form are accepted, matching what
// providers send in the wild.
func VerifySignature(secret, timestamp, signature string, body []byte) bool {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return false
	}
	expected := ComputeSignature(secret, timestamp, body)
	prefixed := "v0=" + expected
	if hmac.Equal([]byte(signature), []byte(prefixed)) {
		return true
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ChallengeToken answers a URL-validation challenge by signing the plain
// token with the webhook secret.
func ChallengeToken(secret, plainToken string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(plainToken))
	return hex.EncodeToString(mac.Sum(nil))
}
