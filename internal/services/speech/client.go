package speech

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
	defaultBaseURL     = "https://api.assemblyai.com/v2"
	defaultHTTPTimeout = 30 * time.Second
	defaultPollDelay   = 3 * time.Second
)

// Config captures the runtime settings required to talk to the speech API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client submits transcription jobs and polls for their results.
type Client struct {
	cfg        Config
	httpClient *http.Client
	pollDelay  time.Duration
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

// WithPollDelay overrides the delay between job status polls (useful for tests).
func WithPollDelay(delay time.Duration) Option {
	return func(c *Client) {
		if delay > 0 {
			c.pollDelay = delay
		}
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		pollDelay:  defaultPollDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

// Transcript is the finished output of a transcription job.
type Transcript struct {
	Text            string
	LanguageCode    string
	DurationSeconds float64
}

// Segment is one diarized utterance in a job response.
type Segment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

type jobRequest struct {
	AudioURL          string `json:"audio_url"`
	SpeechModel       string `json:"speech_model,omitempty"`
	LanguageCode      string `json:"language_code,omitempty"`
	LanguageDetection bool   `json:"language_detection"`
	Punctuate         bool   `json:"punctuate"`
	FormatText        bool   `json:"format_text"`
	SpeakerLabels     bool   `json:"speaker_labels"`
	SpeakersExpected  int    `json:"speakers_expected,omitempty"`
}

type jobResponse struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	Text          string    `json:"text"`
	LanguageCode  string    `json:"language_code"`
	AudioDuration float64   `json:"audio_duration"`
	Utterances    []Segment `json:"utterances"`
	Error         string    `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("speech request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsRejected reports whether the error represents a definitive rejection of
// the request (bad recording URL, invalid payload) rather than a provider
// outage worth retrying.
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

// Transcribe submits the recording URL and blocks until the provider
// finishes the job or the context expires.
func (c *Client) Transcribe(ctx context.Context, recordingURL, languageCode string) (*Transcript, error) {
	recordingURL = strings.TrimSpace(recordingURL)
	if recordingURL == "" {
		return nil, errors.New("speech transcribe: recording url required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("speech transcribe: api key required")
	}

	jobID, err := c.submit(ctx, recordingURL, languageCode)
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, jobID)
}

// HealthCheck verifies the API endpoint and key are usable by listing jobs.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("speech health: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/transcript?limit=1", nil)
	if err != nil {
		return fmt.Errorf("speech health: new request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *Client) submit(ctx context.Context, recordingURL, languageCode string) (string, error) {
	payload := jobRequest{
		AudioURL:          recordingURL,
		SpeechModel:       c.cfg.Model,
		LanguageCode:      languageCode,
		LanguageDetection: languageCode == "",
		Punctuate:         true,
		FormatText:        true,
		SpeakerLabels:     true,
		SpeakersExpected:  2,
	}
	var job jobResponse
	if err := c.doJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/transcript", payload, &job); err != nil {
		return "", err
	}
	if job.ID == "" {
		return "", errors.New("speech transcribe: provider returned no job id")
	}
	return job.ID, nil
}

func (c *Client) poll(ctx context.Context, jobID string) (*Transcript, error) {
	endpoint := c.cfg.BaseURL + "/transcript/" + jobID
	for {
		var job jobResponse
		if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &job); err != nil {
			return nil, err
		}
		switch job.Status {
		case "completed":
			return &Transcript{
				Text:            normalizeSegments(job.Utterances, job.Text),
				LanguageCode:    job.LanguageCode,
				DurationSeconds: job.AudioDuration,
			}, nil
		case "error":
			detail := strings.TrimSpace(job.Error)
			if detail == "" {
				detail = "job failed without detail"
			}
			return nil, fmt.Errorf("speech transcribe: job %s: %s", jobID, detail)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollDelay):
		}
	}
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("speech request: encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("speech request: new request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("speech request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("speech request: decode response: %w", err)
	}
	return nil
}

// normalizeSegments converts diarized utterances into alternating
// "Agent:"/"Customer:" lines, merging consecutive turns by the same speaker.
// Falls back to the flat transcript when no utterances are present.
func normalizeSegments(segments []Segment, fallback string) string {
	if len(segments) == 0 {
		return strings.TrimSpace(fallback)
	}

	var lines []string
	lastRole := ""
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		role := "Customer"
		switch strings.TrimSpace(segment.Speaker) {
		case "0", "A":
			role = "Agent"
		}
		if role == lastRole && len(lines) > 0 {
			lines[len(lines)-1] += " " + text
		} else {
			lines = append(lines, role+": "+text)
		}
		lastRole = role
	}
	if len(lines) == 0 {
		return strings.TrimSpace(fallback)
	}
	return strings.Join(lines, "\n")
}
