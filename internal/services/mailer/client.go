package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.resend.com"
	defaultHTTPTimeout = 15 * time.Second
)

// Config captures the runtime settings required to send alert email.
type Config struct {
	APIKey         string
	BaseURL        string
	From           string
	To             string
	TimeoutSeconds int
}

// Client sends transactional email through the provider's REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a mailer client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			From:           strings.TrimSpace(cfg.From),
			To:             strings.TrimSpace(cfg.To),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("mail request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsRejected reports whether the error is a definitive request rejection
// (bad recipient, malformed payload) rather than a provider outage.
func IsRejected(err error) bool {
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch {
	case statusErr.StatusCode == http.StatusTooManyRequests:
		return false
	case statusErr.StatusCode >= http.StatusInternalServerError:
		return false
	case statusErr.StatusCode >= http.StatusBadRequest:
		return true
	default:
		return false
	}
}

// Send delivers one email and returns the provider's message identifier.
func (c *Client) Send(ctx context.Context, subject, htmlBody, textBody string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.New("mail send: api key required")
	}
	if c.cfg.From == "" || c.cfg.To == "" {
		return "", errors.New("mail send: from and to addresses required")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("mail send: subject required")
	}

	payload := sendRequest{
		From:    c.cfg.From,
		To:      []string{c.cfg.To},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("mail send: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/emails", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("mail send: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mail send: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mail send: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result sendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("mail send: decode response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("mail send: unexpected response: %s", strings.TrimSpace(string(body)))
	}
	return result.ID, nil
}

// HealthCheck verifies the configured credentials without sending mail.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("mail health: api key required")
	}
	if c.cfg.From == "" || c.cfg.To == "" {
		return errors.New("mail health: from and to addresses required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/domains", nil)
	if err != nil {
		return fmt.Errorf("mail health: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
