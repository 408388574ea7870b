package analyze

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
	"callaudit/internal/services/llm"
)

// Client is the slice of the LLM API the analyzer needs.
type Client interface {
	ScoreTranscript(ctx context.Context, prompt, transcript, language, agentName string) (*llm.Scoring, error)
	HealthCheck(ctx context.Context) error
}

// Analyzer runs the analysis stage against the scoring model.
type Analyzer struct {
	store  *records.Store
	client Client
	prompt string
	logger *slog.Logger
}

// New builds the analysis stage from daemon configuration.
func New(store *records.Store, cfg *config.Config, logger *slog.Logger) *Analyzer {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.Analysis.APIKey,
		BaseURL:        cfg.Analysis.BaseURL,
		Model:          cfg.Analysis.Model,
		TimeoutSeconds: cfg.Analysis.TimeoutSeconds,
	})
	analyzer := NewWithClient(store, client, logger)
	analyzer.prompt = cfg.Analysis.Prompt
	return analyzer
}

// NewWithClient builds the stage around an explicit client (used by tests).
func NewWithClient(store *records.Store, client Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		store:  store,
		client: client,
		logger: logging.NewComponentLogger(logger, "analyze"),
	}
}

// Stage identifies the pipeline stage this handler serves.
func (a *Analyzer) Stage() records.Stage {
	return records.StageAnalysis
}

// Execute grades the claimed record's transcript and persists the result.
func (a *Analyzer) Execute(ctx context.Context, record *records.CallRecord) error {
	logger := logging.WithContext(ctx, a.logger)

	if strings.TrimSpace(record.Transcript) == "" {
		return services.Wrap(services.ErrValidation, "analysis", "score",
			"record has no transcript to analyze", nil)
	}

	scoring, err := a.client.ScoreTranscript(ctx, a.prompt, record.Transcript, record.Language, record.AgentName)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err := services.ClassifyTimeout(err, "analysis", "score"); errors.Is(err, services.ErrTimeout) {
			return err
		}
		if llm.IsRejected(err) {
			return services.Wrap(services.ErrValidation, "analysis", "score",
				"model rejected the scoring request", err)
		}
		return services.Wrap(services.ErrExternalTool, "analysis", "score",
			"scoring model call failed", err)
	}

	logger.Info("analysis finished",
		logging.String(logging.FieldCallID, record.CallID),
		logging.Int("score", scoring.Score),
		logging.Bool("has_warning", scoring.HasWarning),
		logging.String("sentiment", scoring.Sentiment),
	)

	result := records.AnalysisResult{
		Score:          scoring.Score,
		Summary:        scoring.Summary,
		Sentiment:      scoring.Sentiment,
		Department:     scoring.Department,
		HasWarning:     scoring.HasWarning,
		WarningReasons: scoring.WarningReasons,
	}
	if err := a.store.CompleteAnalysis(ctx, record.ID, result); err != nil {
		return services.Wrap(services.ErrTransient, "analysis", "persist",
			"failed to store analysis result", err)
	}
	return nil
}

// HealthCheck reports whether the scoring model is reachable.
func (a *Analyzer) HealthCheck(ctx context.Context) pipeline.Health {
	if err := a.client.HealthCheck(ctx); err != nil {
		return pipeline.Unhealthy("analysis", err.Error())
	}
	return pipeline.Healthy("analysis")
}
