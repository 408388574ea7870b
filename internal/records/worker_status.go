package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TickWorker upserts the heartbeat row for a worker and bumps its counters.
// Called once per poll cycle whether or not work was found.
func (s *Store) TickWorker(ctx context.Context, workerType string, processedDelta, failedDelta int) error {
	now := timestamp(time.Now().UTC())
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO worker_status (worker_type, status, last_heartbeat, processed_count, failed_count, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(worker_type) DO UPDATE SET
            status = excluded.status,
            last_heartbeat = excluded.last_heartbeat,
            processed_count = worker_status.processed_count + ?,
            failed_count = worker_status.failed_count + ?,
            updated_at = excluded.updated_at`,
		workerType,
		WorkerRunning,
		now,
		processedDelta,
		failedDelta,
		now,
		processedDelta,
		failedDelta,
	)
	if err != nil {
		return fmt.Errorf("tick worker %s: %w", workerType, err)
	}
	return nil
}

// SetWorkerState records a lifecycle change (stopped, error) without touching
// heartbeat counters.
func (s *Store) SetWorkerState(ctx context.Context, workerType string, state WorkerState) error {
	now := timestamp(time.Now().UTC())
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO worker_status (worker_type, status, processed_count, failed_count, updated_at)
         VALUES (?, ?, 0, 0, ?)
         ON CONFLICT(worker_type) DO UPDATE SET
            status = excluded.status,
            updated_at = excluded.updated_at`,
		workerType,
		state,
		now,
	)
	if err != nil {
		return fmt.Errorf("set worker %s state: %w", workerType, err)
	}
	return nil
}

// WorkerStatuses returns every known worker heartbeat row, ordered by type.
func (s *Store) WorkerStatuses(ctx context.Context) ([]WorkerStatus, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT worker_type, status, last_heartbeat, processed_count, failed_count, updated_at
         FROM worker_status ORDER BY worker_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("query worker statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var statuses []WorkerStatus
	for rows.Next() {
		var (
			status       WorkerStatus
			state        string
			heartbeatRaw sql.NullString
			updatedRaw   string
		)
		if err := rows.Scan(
			&status.WorkerType,
			&state,
			&heartbeatRaw,
			&status.ProcessedCount,
			&status.FailedCount,
			&updatedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan worker status: %w", err)
		}
		status.State = WorkerState(state)
		status.LastHeartbeat = parseNullableTime(heartbeatRaw)
		if updated, err := parseTimeString(updatedRaw); err == nil {
			status.UpdatedAt = updated
		}
		statuses = append(statuses, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worker statuses: %w", err)
	}
	return statuses, nil
}
