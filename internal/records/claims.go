package records

import (
	"context"
	"fmt"
	"time"
)

// claimCandidateBatch bounds how many candidates one claim attempt examines
// before reporting no work. Keeps a contended poll cycle from scanning the
// whole backlog.
const claimCandidateBatch = 5

// ClaimNext atomically claims the oldest eligible record for a stage, moving
// it from pending to processing. Returns nil when no record is eligible.
//
// Eligibility requires the stage to be pending, any backoff deadline to have
// passed, and the stage's upstream gate to hold (analysis needs a successful
// transcription; alert additionally needs a warning). The claim itself is a
// conditional update guarded on the pending status, so two workers polling
// the same stage can never claim the same record.
func (s *Store) ClaimNext(ctx context.Context, stage Stage) (*CallRecord, error) {
	cols, err := columnsFor(stage)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ts := timestamp(now)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id FROM call_records
         WHERE `+cols.status+` = ?
           AND (`+cols.nextAttempt+` IS NULL OR `+cols.nextAttempt+` <= ?)`+cols.gate+`
         ORDER BY created_at ASC, id ASC
         LIMIT ?`,
		StatusPending,
		ts,
		claimCandidateBatch,
	)
	if err != nil {
		return nil, fmt.Errorf("select claim candidates: %w", err)
	}
	var candidates []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan claim candidate: %w", err)
		}
		candidates = append(candidates, id)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("iterate claim candidates: %w", err)
	}
	_ = rows.Close()

	for _, id := range candidates {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE call_records SET
                `+cols.status+` = ?,
                `+cols.startedAt+` = ?,
                `+cols.errorCol+` = NULL,
                updated_at = ?
             WHERE id = ? AND `+cols.status+` = ?`,
			StatusProcessing,
			ts,
			ts,
			id,
			StatusPending,
		)
		if err != nil {
			return nil, fmt.Errorf("claim record %s: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("claim rows affected: %w", err)
		}
		if affected == 0 {
			// Another worker won the race for this candidate.
			continue
		}
		record, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return nil, fmt.Errorf("claimed record %s missing", id)
		}
		return record, nil
	}

	return nil, nil
}

// ReclaimStale returns records stuck in processing back to pending when their
// claim is older than cutoff. The retry counter is untouched: a crashed
// worker should not consume the record's retry budget.
func (s *Store) ReclaimStale(ctx context.Context, stage Stage, cutoff time.Time) (int64, error) {
	cols, err := columnsFor(stage)
	if err != nil {
		return 0, err
	}

	res, err := s.execWithRetry(
		ctx,
		`UPDATE call_records SET
            `+cols.status+` = ?,
            `+cols.startedAt+` = NULL,
            updated_at = ?
         WHERE `+cols.status+` = ?
           AND `+cols.startedAt+` IS NOT NULL
           AND `+cols.startedAt+` < ?`,
		StatusPending,
		timestamp(time.Now().UTC()),
		StatusProcessing,
		timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale %s claims: %w", stage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reclaim rows affected: %w", err)
	}
	return affected, nil
}
