package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"callaudit/internal/config"
	"callaudit/internal/logging"
	"callaudit/internal/pipeline"
	"callaudit/internal/records"
	"callaudit/internal/services"
	"callaudit/internal/services/speech"
)

// Client is the slice of the speech API the transcriber needs.
type Client interface {
	Transcribe(ctx context.Context, recordingURL, languageCode string) (*speech.Transcript, error)
	HealthCheck(ctx context.Context) error
}

// Transcriber runs the transcription stage against the speech provider.
type Transcriber struct {
	store  *records.Store
	client Client
	logger *slog.Logger
}

// New builds the transcription stage from daemon configuration.
func New(store *records.Store, cfg *config.Config, logger *slog.Logger) *Transcriber {
	client := speech.NewClient(speech.Config{
		APIKey:         cfg.Speech.APIKey,
		BaseURL:        cfg.Speech.BaseURL,
		Model:          cfg.Speech.Model,
		TimeoutSeconds: cfg.Speech.TimeoutSeconds,
	})
	return NewWithClient(store, client, logger)
}

// NewWithClient builds the stage around an explicit client (used by tests).
func NewWithClient(store *records.Store, client Client, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transcriber{
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "transcribe"),
	}
}

// Stage identifies the pipeline stage this handler serves.
func (t *Transcriber) Stage() records.Stage {
	return records.StageTranscription
}

// Execute transcribes the claimed record's recording and persists the result.
func (t *Transcriber) Execute(ctx context.Context, record *records.CallRecord) error {
	logger := logging.WithContext(ctx, t.logger)

	langCode := NormalizeLanguage(record.Language)
	transcript, err := t.client.Transcribe(ctx, record.RecordingURL, langCode)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err := services.ClassifyTimeout(err, "transcription", "transcribe"); errors.Is(err, services.ErrTimeout) {
			return err
		}
		if speech.IsRejected(err) {
			return services.Wrap(services.ErrValidation, "transcription", "transcribe",
				"provider rejected the recording", err)
		}
		return services.Wrap(services.ErrExternalTool, "transcription", "transcribe",
			"speech provider call failed", err)
	}

	text := strings.TrimSpace(transcript.Text)
	if text == "" {
		return services.Wrap(services.ErrValidation, "transcription", "transcribe",
			"provider returned an empty transcript", nil)
	}

	logger.Info("transcription finished",
		logging.String(logging.FieldCallID, record.CallID),
		logging.Int("transcript_chars", len(text)),
		logging.String("language", transcript.LanguageCode),
		logging.Float64("audio_seconds", transcript.DurationSeconds),
	)

	if err := t.store.CompleteTranscription(ctx, record.ID, text, transcript.LanguageCode); err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "persist",
			"failed to store transcript", err)
	}
	return nil
}

// HealthCheck reports whether the speech provider is reachable.
func (t *Transcriber) HealthCheck(ctx context.Context) pipeline.Health {
	if err := t.client.HealthCheck(ctx); err != nil {
		return pipeline.Unhealthy("transcription", err.Error())
	}
	return pipeline.Healthy("transcription")
}
