package config

const (
	defaultDataDir            = "~/.local/share/callaudit"
	defaultLogDir             = "~/.local/share/callaudit/logs"
	defaultAPIBind            = "127.0.0.1:8480"
	defaultSpeechBaseURL      = "https://api.assemblyai.com/v2"
	defaultSpeechModel        = "best"
	defaultSpeechTimeout      = 300
	defaultAnalysisBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultAnalysisModel      = "google/gemini-2.0-flash-001"
	defaultAnalysisTimeout    = 120
	defaultEmailBaseURL       = "https://api.resend.com"
	defaultEmailTimeout       = 30
	defaultPollInterval       = 5
	defaultErrorRetryInterval = 10
	defaultCallTimeout        = 300
	defaultMaxRetries         = 3
	defaultRetryBackoffBase   = 30
	defaultRetryBackoffMax    = 600
	defaultStaleClaimTimeout  = 900
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Speech: Speech{
			BaseURL:        defaultSpeechBaseURL,
			Model:          defaultSpeechModel,
			TimeoutSeconds: defaultSpeechTimeout,
		},
		Analysis: Analysis{
			BaseURL:        defaultAnalysisBaseURL,
			Model:          defaultAnalysisModel,
			TimeoutSeconds: defaultAnalysisTimeout,
		},
		Email: Email{
			BaseURL:        defaultEmailBaseURL,
			TimeoutSeconds: defaultEmailTimeout,
		},
		Webhook: Webhook{
			RequireSignature: false,
		},
		Workers: Workers{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			CallTimeout:        defaultCallTimeout,
			MaxRetries:         defaultMaxRetries,
			RetryBackoffBase:   defaultRetryBackoffBase,
			RetryBackoffMax:    defaultRetryBackoffMax,
			StaleClaimTimeout:  defaultStaleClaimTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
