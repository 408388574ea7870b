package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"callaudit/internal/records"
)

// Retry puts a failed stage back in the queue, or clears a pending stage's
// backoff so the next poll picks it up immediately. An empty stage value
// scans the stages in pipeline order and acts on the first retryable one.
func (s *CallService) Retry(ctx context.Context, id, stageValue string) (RetryResult, error) {
	if s == nil || s.store == nil {
		return RetryResult{ID: id, Outcome: RetryNotFound}, nil
	}

	var stages []records.Stage
	if trimmed := strings.TrimSpace(stageValue); trimmed != "" {
		stage, ok := records.ParseStage(trimmed)
		if !ok {
			return RetryResult{}, fmt.Errorf("unknown stage %q", stageValue)
		}
		stages = []records.Stage{stage}
	} else {
		stages = records.Stages()
	}

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return RetryResult{}, err
	}
	if record == nil {
		record, err = s.store.GetByCallID(ctx, id)
		if err != nil {
			return RetryResult{}, err
		}
		if record == nil {
			return RetryResult{ID: id, Outcome: RetryNotFound}, nil
		}
	}

	now := time.Now().UTC()
	for _, stage := range stages {
		state := record.StageState(stage)
		switch {
		case state.Status == records.StatusFailed:
			if err := s.store.ResetStage(ctx, record.ID, stage); err != nil {
				return RetryResult{}, err
			}
			return RetryResult{
				ID:      record.ID,
				Stage:   string(stage),
				Outcome: RetryDone,
				Status:  string(records.StatusPending),
			}, nil
		case state.Status == records.StatusPending &&
			state.NextAttemptAt != nil && state.NextAttemptAt.After(now):
			if err := s.store.ResetStageBackoff(ctx, record.ID, stage); err != nil {
				return RetryResult{}, err
			}
			return RetryResult{
				ID:      record.ID,
				Stage:   string(stage),
				Outcome: RetryRescheduled,
				Status:  string(records.StatusPending),
			}, nil
		}
	}
	return RetryResult{ID: record.ID, Outcome: RetryNotRetryable}, nil
}
