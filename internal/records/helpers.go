package records

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const recordColumns = "id, call_id, recording_url, from_number, to_number, agent_name, department, direction, call_time, duration_seconds, language, correlation_id, " +
	"transcript, score, summary, sentiment, has_warning, warning_reasons, alert_sent_at, " +
	"transcription_status, transcription_started_at, transcription_completed_at, transcription_error, transcription_retries, transcription_next_attempt_at, " +
	"analysis_status, analysis_started_at, analysis_completed_at, analysis_error, analysis_retries, analysis_next_attempt_at, " +
	"alert_status, alert_started_at, alert_completed_at, alert_error, alert_retries, alert_next_attempt_at, " +
	"created_at, updated_at"

// stageColumns maps a stage to its column family plus the extra predicate a
// record must satisfy before the stage becomes claimable.
type stageColumns struct {
	status      string
	startedAt   string
	completedAt string
	errorCol    string
	retries     string
	nextAttempt string
	gate        string
}

var stageColumnTable = map[Stage]stageColumns{
	StageTranscription: {
		status:      "transcription_status",
		startedAt:   "transcription_started_at",
		completedAt: "transcription_completed_at",
		errorCol:    "transcription_error",
		retries:     "transcription_retries",
		nextAttempt: "transcription_next_attempt_at",
	},
	StageAnalysis: {
		status:      "analysis_status",
		startedAt:   "analysis_started_at",
		completedAt: "analysis_completed_at",
		errorCol:    "analysis_error",
		retries:     "analysis_retries",
		nextAttempt: "analysis_next_attempt_at",
		gate:        " AND transcription_status = 'success'",
	},
	StageAlert: {
		status:      "alert_status",
		startedAt:   "alert_started_at",
		completedAt: "alert_completed_at",
		errorCol:    "alert_error",
		retries:     "alert_retries",
		nextAttempt: "alert_next_attempt_at",
		gate:        " AND analysis_status = 'success' AND has_warning = 1",
	},
}

func columnsFor(stage Stage) (stageColumns, error) {
	cols, ok := stageColumnTable[stage]
	if !ok {
		return stageColumns{}, fmt.Errorf("unknown stage %q", stage)
	}
	return cols, nil
}

type stageScan struct {
	status      string
	startedAt   sql.NullString
	completedAt sql.NullString
	errorMsg    sql.NullString
	retries     int
	nextAttempt sql.NullString
}

func (sc *stageScan) state() StageState {
	state := StageState{
		Status:  StageStatus(sc.status),
		Error:   sc.errorMsg.String,
		Retries: sc.retries,
	}
	state.StartedAt = parseNullableTime(sc.startedAt)
	state.CompletedAt = parseNullableTime(sc.completedAt)
	state.NextAttemptAt = parseNullableTime(sc.nextAttempt)
	return state
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*CallRecord, error) {
	var (
		id              string
		callID          string
		recordingURL    string
		fromNumber      sql.NullString
		toNumber        sql.NullString
		agentName       sql.NullString
		department      sql.NullString
		direction       sql.NullString
		callTimeRaw     sql.NullString
		durationSeconds int
		language        sql.NullString
		correlationID   sql.NullString
		transcript      sql.NullString
		score           sql.NullInt64
		summary         sql.NullString
		sentiment       sql.NullString
		hasWarning      sql.NullInt64
		warningReasons  sql.NullString
		alertSentRaw    sql.NullString
		transcription   stageScan
		analysis        stageScan
		alert           stageScan
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&callID,
		&recordingURL,
		&fromNumber,
		&toNumber,
		&agentName,
		&department,
		&direction,
		&callTimeRaw,
		&durationSeconds,
		&language,
		&correlationID,
		&transcript,
		&score,
		&summary,
		&sentiment,
		&hasWarning,
		&warningReasons,
		&alertSentRaw,
		&transcription.status,
		&transcription.startedAt,
		&transcription.completedAt,
		&transcription.errorMsg,
		&transcription.retries,
		&transcription.nextAttempt,
		&analysis.status,
		&analysis.startedAt,
		&analysis.completedAt,
		&analysis.errorMsg,
		&analysis.retries,
		&analysis.nextAttempt,
		&alert.status,
		&alert.startedAt,
		&alert.completedAt,
		&alert.errorMsg,
		&alert.retries,
		&alert.nextAttempt,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &CallRecord{
		ID:              id,
		CallID:          callID,
		RecordingURL:    recordingURL,
		FromNumber:      fromNumber.String,
		ToNumber:        toNumber.String,
		AgentName:       agentName.String,
		Department:      department.String,
		Direction:       direction.String,
		DurationSeconds: durationSeconds,
		Language:        language.String,
		CorrelationID:   correlationID.String,
		Transcript:      transcript.String,
		Summary:         summary.String,
		Sentiment:       sentiment.String,
		Transcription:   transcription.state(),
		Analysis:        analysis.state(),
		Alert:           alert.state(),
	}
	if score.Valid {
		record.Score = int(score.Int64)
	}
	if hasWarning.Valid {
		record.HasWarning = hasWarning.Int64 != 0
	}
	if warningReasons.Valid && warningReasons.String != "" {
		if err := json.Unmarshal([]byte(warningReasons.String), &record.WarningReasons); err != nil {
			return nil, fmt.Errorf("decode warning reasons for %s: %w", id, err)
		}
	}
	record.CallTime = parseNullableTime(callTimeRaw)
	record.AlertSentAt = parseNullableTime(alertSentRaw)

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func timestamp(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
