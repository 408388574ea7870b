package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"callaudit/internal/config"
	"callaudit/internal/logging"
	"callaudit/internal/metrics"
	"callaudit/internal/records"
	"callaudit/internal/services"
)

// Worker drives a single stage handler against the record store.
type Worker struct {
	store   *records.Store
	handler Handler
	logger  *slog.Logger

	pollInterval       time.Duration
	errorRetryInterval time.Duration
	callTimeout        time.Duration
	staleClaimTimeout  time.Duration
	policy             records.RetryPolicy
}

// NewWorker builds a stage worker from daemon configuration.
func NewWorker(store *records.Store, handler Handler, cfg *config.Config, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		store:              store,
		handler:            handler,
		logger:             logging.NewComponentLogger(logger, string(handler.Stage())+"-worker"),
		pollInterval:       time.Duration(cfg.Workers.PollInterval) * time.Second,
		errorRetryInterval: time.Duration(cfg.Workers.ErrorRetryInterval) * time.Second,
		callTimeout:        time.Duration(cfg.Workers.CallTimeout) * time.Second,
		staleClaimTimeout:  time.Duration(cfg.Workers.StaleClaimTimeout) * time.Second,
		policy: records.RetryPolicy{
			MaxAttempts: cfg.Workers.MaxRetries,
			BackoffBase: time.Duration(cfg.Workers.RetryBackoffBase) * time.Second,
			BackoffMax:  time.Duration(cfg.Workers.RetryBackoffMax) * time.Second,
		},
	}
}

// Stage returns the pipeline stage this worker serves.
func (w *Worker) Stage() records.Stage {
	return w.handler.Stage()
}

// HealthCheck reports the readiness of the underlying handler.
func (w *Worker) HealthCheck(ctx context.Context) Health {
	return w.handler.HealthCheck(ctx)
}

// Run polls for work until the context is canceled. Each cycle reclaims
// stale claims, ticks the worker heartbeat, and processes at most one record.
func (w *Worker) Run(ctx context.Context) {
	stage := w.handler.Stage()
	w.logger.Info("worker started",
		logging.String(logging.FieldStage, string(stage)),
		logging.String(logging.FieldEventType, "worker_start"),
	)
	defer func() {
		if err := w.store.SetWorkerState(context.Background(), string(stage), records.WorkerStopped); err != nil {
			w.logger.Warn("failed to record worker stop", logging.Error(err))
		}
		w.logger.Info("worker stopped",
			logging.String(logging.FieldStage, string(stage)),
			logging.String(logging.FieldEventType, "worker_stop"),
		)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.reclaimStale(ctx)

		processed, failed := 0, 0
		record, err := w.store.ClaimNext(ctx, stage)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to claim next record",
				logging.Error(err),
				logging.String(logging.FieldEventType, "claim_failed"),
				logging.String(logging.FieldErrorHint, "check record database access"),
			)
			if err := w.store.SetWorkerState(ctx, string(stage), records.WorkerError); err != nil {
				w.logger.Warn("failed to record worker error state", logging.Error(err))
			}
			if !w.sleep(ctx, w.errorRetryInterval) {
				return
			}
			continue
		case record == nil:
			w.tick(ctx, 0, 0)
			if !w.sleep(ctx, w.pollInterval) {
				return
			}
			continue
		}

		if w.process(ctx, record) {
			processed++
		} else {
			failed++
		}
		w.tick(ctx, processed, failed)
	}
}

// process executes the handler on a claimed record, returning true when the
// stage succeeded.
func (w *Worker) process(ctx context.Context, record *records.CallRecord) bool {
	stage := w.handler.Stage()
	stageCtx := services.WithRecordID(ctx, record.ID)
	stageCtx = services.WithStage(stageCtx, string(stage))
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	logger := logging.WithContext(stageCtx, w.logger)

	start := time.Now()
	logger.Info("stage started",
		logging.String(logging.FieldCallID, record.CallID),
		logging.Int("attempt", record.StageState(stage).Retries+1),
		logging.String(logging.FieldEventType, "stage_start"),
	)

	execCtx := stageCtx
	if w.callTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(stageCtx, w.callTimeout)
		defer cancel()
	}

	err := w.handler.Execute(execCtx, record)
	if err == nil {
		metrics.StageAttempts.WithLabelValues(string(stage), "success").Inc()
		metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
		logger.Info("stage completed",
			logging.String(logging.FieldCallID, record.CallID),
			logging.Duration("stage_duration", time.Since(start)),
			logging.String(logging.FieldEventType, "stage_complete"),
		)
		return true
	}

	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Shutdown mid-stage: leave the claim for the stale reclaimer.
		logger.Debug("stage interrupted by shutdown")
		return false
	}

	err = services.ClassifyTimeout(err, string(stage), "execute")
	permanent := services.IsPermanent(err)
	message := strings.TrimSpace(err.Error())

	status, failErr := w.store.FailStage(stageCtx, record.ID, stage, message, permanent, w.policy)
	if failErr != nil {
		if errors.Is(failErr, records.ErrClaimLost) {
			metrics.StageAttempts.WithLabelValues(string(stage), "claim_lost").Inc()
			logger.Warn("stage claim lost before failure could be recorded",
				logging.Error(err),
				logging.String(logging.FieldEventType, "stage_claim_lost"),
			)
			return false
		}
		logger.Error("failed to persist stage failure",
			logging.Error(failErr),
			logging.String(logging.FieldEventType, "stage_failure_persist_failed"),
			logging.String(logging.FieldErrorHint, "check record database access"),
		)
		return false
	}

	outcome := "retry"
	if status == records.StatusFailed {
		outcome = "failed"
	}
	metrics.StageAttempts.WithLabelValues(string(stage), outcome).Inc()
	metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	logger.Error("stage failed",
		logging.Error(err),
		logging.String(logging.FieldCallID, record.CallID),
		logging.String("resolved_status", string(status)),
		logging.Bool("permanent", permanent),
		logging.String(logging.FieldEventType, "stage_failure"),
	)
	return false
}

func (w *Worker) reclaimStale(ctx context.Context) {
	if w.staleClaimTimeout <= 0 {
		return
	}
	stage := w.handler.Stage()
	cutoff := time.Now().Add(-w.staleClaimTimeout)
	count, err := w.store.ReclaimStale(ctx, stage, cutoff)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("reclaim stale claims failed; stuck records may remain",
			logging.Error(err),
			logging.String(logging.FieldEventType, "stale_reclaim_failed"),
			logging.String(logging.FieldErrorHint, "check record database access"),
		)
		return
	}
	if count > 0 {
		metrics.StaleClaimsReclaimed.WithLabelValues(string(stage)).Add(float64(count))
		w.logger.Warn("reclaimed stale claims",
			logging.Int64("count", count),
			logging.String(logging.FieldStage, string(stage)),
			logging.String(logging.FieldEventType, "stale_reclaim"),
		)
	}
}

func (w *Worker) tick(ctx context.Context, processed, failed int) {
	if err := w.store.TickWorker(ctx, string(w.handler.Stage()), processed, failed); err != nil && !errors.Is(err, context.Canceled) {
		w.logger.Warn("failed to record worker heartbeat", logging.Error(err))
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
