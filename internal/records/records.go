package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Insert enqueues a new call record with every stage pending. When a record
// with the same call_id already exists the existing record is returned
// unchanged, so webhook redelivery never duplicates work.
func (s *Store) Insert(ctx context.Context, call NewCall) (*CallRecord, bool, error) {
	callID := strings.TrimSpace(call.CallID)
	if callID == "" {
		return nil, false, errors.New("call id is required")
	}
	if strings.TrimSpace(call.RecordingURL) == "" {
		return nil, false, errors.New("recording url is required")
	}

	now := time.Now().UTC()
	ts := timestamp(now)

	res, err := s.execWithRetry(
		ctx,
		`INSERT OR IGNORE INTO call_records (
            id, call_id, recording_url, from_number, to_number, agent_name,
            department, direction, call_time, duration_seconds, language,
            correlation_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(),
		callID,
		call.RecordingURL,
		nullableString(call.FromNumber),
		nullableString(call.ToNumber),
		nullableString(call.AgentName),
		nullableString(call.Department),
		nullableString(call.Direction),
		nullableTime(call.CallTime),
		call.DurationSeconds,
		nullableString(call.Language),
		nullableString(call.CorrelationID),
		ts,
		ts,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert call record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	record, err := s.GetByCallID(ctx, callID)
	if err != nil {
		return nil, false, err
	}
	if record == nil {
		return nil, false, fmt.Errorf("call record %s missing after insert", callID)
	}
	return record, affected > 0, nil
}

// GetByID fetches a call record by internal identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*CallRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM call_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// GetByCallID fetches a call record by the provider's call identifier.
func (s *Store) GetByCallID(ctx context.Context, callID string) (*CallRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM call_records WHERE call_id = ?`, callID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by call id: %w", err)
	}
	return record, nil
}
