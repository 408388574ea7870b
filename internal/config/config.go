package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Speech contains configuration for the transcription API.
type Speech struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Analysis contains configuration for the LLM call-scoring API.
type Analysis struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Prompt         string `toml:"prompt"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Email contains configuration for the alert email API.
type Email struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	From           string `toml:"from"`
	To             string `toml:"to"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Webhook contains configuration for the ingestion webhook endpoint.
type Webhook struct {
	SecretToken      string `toml:"secret_token"`
	RequireSignature bool   `toml:"require_signature"`
}

// Workers contains pipeline timing, retry, and staleness settings.
type Workers struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	CallTimeout        int `toml:"call_timeout"`
	MaxRetries         int `toml:"max_retries"`
	RetryBackoffBase   int `toml:"retry_backoff_base"`
	RetryBackoffMax    int `toml:"retry_backoff_max"`
	StaleClaimTimeout  int `toml:"stale_claim_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for callaudit.
//
// Sections by subsystem:
//   - Paths: data/log directories and the API bind address
//   - Speech: transcription API connection settings
//   - Analysis: LLM scoring API connection settings
//   - Email: alert email API settings and recipients
//   - Webhook: ingestion signature verification
//   - Workers: poll intervals, retry budget, backoff, stale-claim timeout
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Speech   Speech   `toml:"speech"`
	Analysis Analysis `toml:"analysis"`
	Email    Email    `toml:"email"`
	Webhook  Webhook  `toml:"webhook"`
	Workers  Workers  `toml:"workers"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/callaudit/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and secret overrides from the environment applied.
func Load(path string) (*Config, string, bool, error) {
	// Best-effort .env overlay so secrets can live outside the TOML file.
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("callaudit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// applyEnvOverrides copies secret material from the environment over any file
// values. Environment always wins so deployments can rotate keys without
// touching the config file.
func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"SPEECH_API_KEY", &c.Speech.APIKey},
		{"ANALYSIS_API_KEY", &c.Analysis.APIKey},
		{"EMAIL_API_KEY", &c.Email.APIKey},
		{"WEBHOOK_SECRET_TOKEN", &c.Webhook.SecretToken},
	}
	for _, o := range overrides {
		if value := strings.TrimSpace(os.Getenv(o.env)); value != "" {
			*o.target = value
		}
	}
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the call records database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "callaudit.db")
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
