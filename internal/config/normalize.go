package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSpeech()
	c.normalizeAnalysis()
	c.normalizeEmail()
	c.normalizeWorkers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSpeech() {
	c.Speech.APIKey = strings.TrimSpace(c.Speech.APIKey)
	c.Speech.BaseURL = strings.TrimSpace(c.Speech.BaseURL)
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.Model = strings.TrimSpace(c.Speech.Model)
	if c.Speech.Model == "" {
		c.Speech.Model = defaultSpeechModel
	}
	if c.Speech.TimeoutSeconds <= 0 {
		c.Speech.TimeoutSeconds = defaultSpeechTimeout
	}
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.APIKey = strings.TrimSpace(c.Analysis.APIKey)
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = defaultAnalysisBaseURL
	}
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaultAnalysisModel
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeout
	}
}

func (c *Config) normalizeEmail() {
	c.Email.APIKey = strings.TrimSpace(c.Email.APIKey)
	c.Email.BaseURL = strings.TrimSpace(c.Email.BaseURL)
	if c.Email.BaseURL == "" {
		c.Email.BaseURL = defaultEmailBaseURL
	}
	c.Email.From = strings.TrimSpace(c.Email.From)
	c.Email.To = strings.TrimSpace(c.Email.To)
	if c.Email.TimeoutSeconds <= 0 {
		c.Email.TimeoutSeconds = defaultEmailTimeout
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.PollInterval <= 0 {
		c.Workers.PollInterval = defaultPollInterval
	}
	if c.Workers.ErrorRetryInterval <= 0 {
		c.Workers.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workers.CallTimeout <= 0 {
		c.Workers.CallTimeout = defaultCallTimeout
	}
	if c.Workers.MaxRetries <= 0 {
		c.Workers.MaxRetries = defaultMaxRetries
	}
	if c.Workers.RetryBackoffBase <= 0 {
		c.Workers.RetryBackoffBase = defaultRetryBackoffBase
	}
	if c.Workers.RetryBackoffMax < c.Workers.RetryBackoffBase {
		c.Workers.RetryBackoffMax = defaultRetryBackoffMax
	}
	if c.Workers.StaleClaimTimeout <= 0 {
		c.Workers.StaleClaimTimeout = defaultStaleClaimTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
