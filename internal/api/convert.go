package api

import (
	"slices"
	"strings"
	"time"

	"callaudit/internal/pipeline"
	"callaudit/internal/records"
)

// FromCallRecord converts a persisted call record to its API representation.
func FromCallRecord(record *records.CallRecord) Call {
	if record == nil {
		return Call{}
	}

	dto := Call{
		ID:              record.ID,
		CallID:          record.CallID,
		RecordingURL:    record.RecordingURL,
		FromNumber:      record.FromNumber,
		ToNumber:        record.ToNumber,
		AgentName:       record.AgentName,
		Department:      record.Department,
		Direction:       record.Direction,
		DurationSeconds: record.DurationSeconds,
		Language:        record.Language,
		CorrelationID:   record.CorrelationID,
		Transcript:      record.Transcript,
		Score:           record.Score,
		Summary:         record.Summary,
		Sentiment:       record.Sentiment,
		HasWarning:      record.HasWarning,
		WarningReasons:  record.WarningReasons,
		Transcription:   fromStageState(record.Transcription),
		Analysis:        fromStageState(record.Analysis),
		Alert:           fromStageState(record.Alert),
		Done:            record.Done(),
	}
	if record.CallTime != nil {
		dto.CallTime = FormatTime(*record.CallTime)
	}
	if record.AlertSentAt != nil {
		dto.AlertSentAt = FormatTime(*record.AlertSentAt)
	}
	dto.CreatedAt = FormatTime(record.CreatedAt)
	dto.UpdatedAt = FormatTime(record.UpdatedAt)
	return dto
}

// FromCallRecords converts a slice of call records into API DTOs.
func FromCallRecords(items []*records.CallRecord) []Call {
	if len(items) == 0 {
		return nil
	}
	out := make([]Call, 0, len(items))
	for _, item := range items {
		out = append(out, FromCallRecord(item))
	}
	return out
}

func fromStageState(state records.StageState) StageState {
	dto := StageState{
		Status:  string(state.Status),
		Error:   state.Error,
		Retries: state.Retries,
	}
	if state.StartedAt != nil {
		dto.StartedAt = FormatTime(*state.StartedAt)
	}
	if state.CompletedAt != nil {
		dto.CompletedAt = FormatTime(*state.CompletedAt)
	}
	if state.NextAttemptAt != nil {
		dto.NextAttemptAt = FormatTime(*state.NextAttemptAt)
	}
	return dto
}

// FromStats converts pipeline statistics to API payload.
func FromStats(stats *records.Stats) Stats {
	if stats == nil {
		return Stats{}
	}
	return Stats{
		Total:         stats.Total,
		Warnings:      stats.Warnings,
		AverageScore:  stats.AverageScore,
		CallsToday:    stats.CallsToday,
		CallsThisWeek: stats.CallsThisWeek,
		Sentiments:    stats.Sentiments,
		Transcription: fromStageCounts(stats.Transcription),
		Analysis:      fromStageCounts(stats.Analysis),
		Alert:         fromStageCounts(stats.Alert),
	}
}

func fromStageCounts(counts records.StageCounts) StageCounts {
	return StageCounts{
		Pending:    counts.Pending,
		Processing: counts.Processing,
		Success:    counts.Success,
		Failed:     counts.Failed,
		NotNeeded:  counts.NotNeeded,
	}
}

// FromWorkerStatuses converts worker heartbeat rows into API DTOs.
func FromWorkerStatuses(statuses []records.WorkerStatus) []WorkerStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]WorkerStatus, 0, len(statuses))
	for _, status := range statuses {
		dto := WorkerStatus{
			WorkerType:     status.WorkerType,
			State:          string(status.State),
			ProcessedCount: status.ProcessedCount,
			FailedCount:    status.FailedCount,
		}
		if status.LastHeartbeat != nil {
			dto.LastHeartbeat = FormatTime(*status.LastHeartbeat)
		}
		dto.UpdatedAt = FormatTime(status.UpdatedAt)
		out = append(out, dto)
	}
	return out
}

// FromWorkerHealth converts worker health checks into a deterministic slice.
func FromWorkerHealth(health []pipeline.Health) []WorkerHealth {
	if len(health) == 0 {
		return nil
	}
	out := make([]WorkerHealth, 0, len(health))
	for _, h := range health {
		out = append(out, WorkerHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	slices.SortFunc(out, func(a, b WorkerHealth) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
