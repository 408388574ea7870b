package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RetryPolicy governs how stage failures are retried.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Delay returns how long to wait before the given attempt (1-based). The
// delay doubles per attempt and is capped at BackoffMax.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && delay > p.BackoffMax {
		return p.BackoffMax
	}
	return delay
}

// CompleteTranscription records a successful transcription and stores the
// transcript. The record must still hold its processing claim.
func (s *Store) CompleteTranscription(ctx context.Context, id, transcript, language string) error {
	ts := timestamp(time.Now().UTC())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            transcription_status = ?,
            transcription_completed_at = ?,
            transcription_error = NULL,
            transcription_next_attempt_at = NULL,
            transcript = ?,
            language = COALESCE(NULLIF(?, ''), language),
            updated_at = ?
         WHERE id = ? AND transcription_status = ?`,
		StatusSuccess,
		ts,
		transcript,
		language,
		ts,
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete transcription for %s: %w", id, err)
	}
	return requireClaim(res, id, StageTranscription)
}

// CompleteAnalysis records a successful analysis along with its result
// fields. When the result carries no warning the alert stage is marked
// not_needed in the same update, so there is no window where an alert worker
// could observe a half-finished record.
func (s *Store) CompleteAnalysis(ctx context.Context, id string, result AnalysisResult) error {
	reasons := result.WarningReasons
	if reasons == nil {
		reasons = []string{}
	}
	reasonsJSON, err := json.Marshal(reasons)
	if err != nil {
		return fmt.Errorf("encode warning reasons: %w", err)
	}

	ts := timestamp(time.Now().UTC())
	query := `UPDATE call_records SET
            analysis_status = ?,
            analysis_completed_at = ?,
            analysis_error = NULL,
            analysis_next_attempt_at = NULL,
            score = ?,
            summary = ?,
            sentiment = ?,
            has_warning = ?,
            warning_reasons = ?,
            department = COALESCE(NULLIF(?, ''), department),
            updated_at = ?`
	args := []any{
		StatusSuccess,
		ts,
		result.Score,
		result.Summary,
		strings.ToLower(strings.TrimSpace(result.Sentiment)),
		boolToInt(result.HasWarning),
		string(reasonsJSON),
		strings.ToLower(strings.TrimSpace(result.Department)),
		ts,
	}
	if !result.HasWarning {
		query += `,
            alert_status = ?,
            alert_completed_at = ?`
		args = append(args, StatusNotNeeded, ts)
	}
	query += `
         WHERE id = ? AND analysis_status = ?`
	args = append(args, id, StatusProcessing)

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("complete analysis for %s: %w", id, err)
	}
	return requireClaim(res, id, StageAnalysis)
}

// CompleteAlert records a successfully delivered warning alert.
func (s *Store) CompleteAlert(ctx context.Context, id string, sentAt time.Time) error {
	ts := timestamp(time.Now().UTC())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            alert_status = ?,
            alert_completed_at = ?,
            alert_error = NULL,
            alert_next_attempt_at = NULL,
            alert_sent_at = ?,
            updated_at = ?
         WHERE id = ? AND alert_status = ?`,
		StatusSuccess,
		ts,
		timestamp(sentAt),
		ts,
		id,
		StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("complete alert for %s: %w", id, err)
	}
	return requireClaim(res, id, StageAlert)
}

// FailStage records a stage failure on a record that holds a processing
// claim. Transient failures within the retry budget return the stage to
// pending with a backoff deadline; permanent failures and exhausted budgets
// mark the stage failed. The resulting status is returned.
func (s *Store) FailStage(ctx context.Context, id string, stage Stage, message string, permanent bool, policy RetryPolicy) (StageStatus, error) {
	cols, err := columnsFor(stage)
	if err != nil {
		return "", err
	}

	record, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", fmt.Errorf("fail %s for %s: %w", stage, id, ErrNotFound)
	}
	state := record.StageState(stage)
	if state.Status != StatusProcessing {
		return "", fmt.Errorf("fail %s for %s: %w", stage, id, ErrClaimLost)
	}

	now := time.Now().UTC()
	retries := state.Retries + 1
	next := StatusPending
	var nextAttempt any
	var completedAt any
	if permanent || retries >= policy.MaxAttempts {
		next = StatusFailed
		completedAt = timestamp(now)
	} else {
		nextAttempt = timestamp(now.Add(policy.Delay(retries)))
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            `+cols.status+` = ?,
            `+cols.retries+` = ?,
            `+cols.errorCol+` = ?,
            `+cols.startedAt+` = NULL,
            `+cols.nextAttempt+` = ?,
            `+cols.completedAt+` = ?,
            updated_at = ?
         WHERE id = ? AND `+cols.status+` = ?`,
		next,
		retries,
		nullableString(message),
		nextAttempt,
		completedAt,
		timestamp(now),
		id,
		StatusProcessing,
	)
	if err != nil {
		return "", fmt.Errorf("fail %s for %s: %w", stage, id, err)
	}
	if err := requireClaim(res, id, stage); err != nil {
		return "", err
	}
	return next, nil
}

// ResetStage puts a failed stage back to pending with a fresh retry budget.
// Used by the operator retry surface; records not in failed state are left
// untouched and reported via ErrClaimLost.
func (s *Store) ResetStage(ctx context.Context, id string, stage Stage) error {
	cols, err := columnsFor(stage)
	if err != nil {
		return err
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            `+cols.status+` = ?,
            `+cols.retries+` = 0,
            `+cols.errorCol+` = NULL,
            `+cols.startedAt+` = NULL,
            `+cols.completedAt+` = NULL,
            `+cols.nextAttempt+` = NULL,
            updated_at = ?
         WHERE id = ? AND `+cols.status+` = ?`,
		StatusPending,
		timestamp(time.Now().UTC()),
		id,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("reset %s for %s: %w", stage, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset rows affected: %w", err)
	}
	if affected == 0 {
		record, getErr := s.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		if record == nil {
			return fmt.Errorf("reset %s for %s: %w", stage, id, ErrNotFound)
		}
		return fmt.Errorf("reset %s for %s: stage is %s, not failed: %w",
			stage, id, record.StageState(stage).Status, ErrClaimLost)
	}
	return nil
}

// ResetStageBackoff clears a pending stage's backoff deadline so the next
// poll cycle can claim it immediately.
func (s *Store) ResetStageBackoff(ctx context.Context, id string, stage Stage) error {
	cols, err := columnsFor(stage)
	if err != nil {
		return err
	}
	_, err = s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            `+cols.nextAttempt+` = NULL,
            updated_at = ?
         WHERE id = ? AND `+cols.status+` = ?`,
		timestamp(time.Now().UTC()),
		id,
		StatusPending,
	)
	if err != nil {
		return fmt.Errorf("reset %s backoff for %s: %w", stage, id, err)
	}
	return nil
}

func requireClaim(res sql.Result, id string, stage Stage) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s transition for %s: %w", stage, id, ErrClaimLost)
	}
	return nil
}
