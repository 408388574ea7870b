package testsupport

import (
	"path/filepath"
	"testing"

	"callaudit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Speech.APIKey = "test"
	cfg.Analysis.APIKey = "test"
	cfg.Email.APIKey = "test"
	cfg.Email.From = "qa@example.com"
	cfg.Email.To = "supervisors@example.com"
	cfg.Workers.PollInterval = 1
	cfg.Workers.ErrorRetryInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(c *config.Config) {
		c.Workers.MaxRetries = n
	}
}

// WithWebhookSecret enables signature verification with the given secret.
func WithWebhookSecret(secret string) ConfigOption {
	return func(c *config.Config) {
		c.Webhook.SecretToken = secret
		c.Webhook.RequireSignature = true
	}
}
