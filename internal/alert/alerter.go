package alert

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callaudit/internal/config"
	"callaudit/internal/logging"
	"callaudit/internal/metrics"
	"callaudit/internal/pipeline"
	"callaudit/internal/records"
	"callaudit/internal/services"
	"callaudit/internal/services/mailer"
)

// Client is the slice of the mail API the alerter needs.
type Client interface {
	SendAlert(ctx context.Context, alert mailer.Alert) (string, error)
	HealthCheck(ctx context.Context) error
}

// Alerter runs the alert stage against the mail provider.
type Alerter struct {
	store  *records.Store
	client Client
	logger *slog.Logger
}

// New builds the alert stage from daemon configuration.
func New(store *records.Store, cfg *config.Config, logger *slog.Logger) *Alerter {
	client := mailer.NewClient(mailer.Config{
		APIKey:         cfg.Email.APIKey,
		BaseURL:        cfg.Email.BaseURL,
		From:           cfg.Email.From,
		To:             cfg.Email.To,
		TimeoutSeconds: cfg.Email.TimeoutSeconds,
	})
	return NewWithClient(store, client, logger)
}

// NewWithClient builds the stage around an explicit client (used by tests).
func NewWithClient(store *records.Store, client Client, logger *slog.Logger) *Alerter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Alerter{
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "alert"),
	}
}

// Stage identifies the pipeline stage this handler serves.
func (a *Alerter) Stage() records.Stage {
	return records.StageAlert
}

// Execute sends the warning email for a claimed record and marks the stage
// complete.
func (a *Alerter) Execute(ctx context.Context, record *records.CallRecord) error {
	logger := logging.WithContext(ctx, a.logger)

	messageID, err := a.client.SendAlert(ctx, mailer.Alert{
		CallID:          record.CallID,
		AgentName:       record.AgentName,
		Department:      record.Department,
		FromNumber:      record.FromNumber,
		Score:           record.Score,
		Sentiment:       record.Sentiment,
		Summary:         record.Summary,
		WarningReasons:  record.WarningReasons,
		CallTime:        record.CallTime,
		DurationSeconds: record.DurationSeconds,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err := services.ClassifyTimeout(err, "alert", "send"); errors.Is(err, services.ErrTimeout) {
			return err
		}
		if mailer.IsRejected(err) {
			return services.Wrap(services.ErrValidation, "alert", "send",
				"mail provider rejected the alert", err)
		}
		return services.Wrap(services.ErrExternalTool, "alert", "send",
			"mail provider call failed", err)
	}

	metrics.AlertsSent.Inc()
	logger.Info("alert delivered",
		logging.String(logging.FieldCallID, record.CallID),
		logging.String("message_id", messageID),
		logging.Int("score", record.Score),
	)

	if err := a.store.CompleteAlert(ctx, record.ID, time.Now().UTC()); err != nil {
		return services.Wrap(services.ErrTransient, "alert", "persist",
			"failed to mark alert complete", err)
	}
	return nil
}

// HealthCheck reports whether the mail provider is reachable.
func (a *Alerter) HealthCheck(ctx context.Context) pipeline.Health {
	if err := a.client.HealthCheck(ctx); err != nil {
		return pipeline.Unhealthy("alert", err.Error())
	}
	return pipeline.Healthy("alert")
}
