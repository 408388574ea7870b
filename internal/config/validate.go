package config

import (
	"errors"
	"fmt"
	"net/mail"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	if err := c.validateWebhook(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.StaleClaimTimeout <= c.Workers.CallTimeout {
		return fmt.Errorf(
			"workers.stale_claim_timeout (%d) must exceed workers.call_timeout (%d); otherwise in-flight calls get reclaimed mid-attempt",
			c.Workers.StaleClaimTimeout, c.Workers.CallTimeout,
		)
	}
	if c.Workers.RetryBackoffMax < c.Workers.RetryBackoffBase {
		return errors.New("workers.retry_backoff_max must be at least workers.retry_backoff_base")
	}
	return nil
}

func (c *Config) validateEmail() error {
	for _, addr := range []struct {
		field string
		value string
	}{
		{"email.from", c.Email.From},
		{"email.to", c.Email.To},
	} {
		if addr.value == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr.value); err != nil {
			return fmt.Errorf("%s: invalid address %q", addr.field, addr.value)
		}
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if c.Webhook.RequireSignature && c.Webhook.SecretToken == "" {
		return errors.New("webhook.require_signature is set but webhook.secret_token is empty. Set WEBHOOK_SECRET_TOKEN or add it to the config file")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
