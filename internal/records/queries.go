package records

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const defaultListLimit = 50

func buildFilter(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		clauses = append(clauses,
			"(call_id LIKE ? OR from_number LIKE ? OR to_number LIKE ? OR agent_name LIKE ? OR summary LIKE ?)")
		args = append(args, like, like, like, like, like)
	}
	if filter.TranscriptionStatus != "" {
		clauses = append(clauses, "transcription_status = ?")
		args = append(args, filter.TranscriptionStatus)
	}
	if filter.AnalysisStatus != "" {
		clauses = append(clauses, "analysis_status = ?")
		args = append(args, filter.AnalysisStatus)
	}
	if filter.AlertStatus != "" {
		clauses = append(clauses, "alert_status = ?")
		args = append(args, filter.AlertStatus)
	}
	if filter.Sentiment != "" {
		clauses = append(clauses, "sentiment = ?")
		args = append(args, strings.ToLower(filter.Sentiment))
	}
	if filter.WarningsOnly {
		clauses = append(clauses, "has_warning = 1")
	}
	if filter.CreatedAfter != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, timestamp(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		clauses = append(clauses, "created_at < ?")
		args = append(args, timestamp(*filter.CreatedBefore))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns call records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*CallRecord, error) {
	where, args := buildFilter(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM call_records`+where+
			` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*CallRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return result, nil
}

// Count returns the number of call records matching the filter.
func (s *Store) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := buildFilter(filter)

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM call_records`+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Stats aggregates stage status counts and scoring totals across all records.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `SELECT
            COUNT(1),
            COALESCE(SUM(has_warning), 0),
            COALESCE(AVG(CASE WHEN analysis_status = 'success' THEN score END), 0)
         FROM call_records`,
	).Scan(&stats.Total, &stats.Warnings, &stats.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("aggregate totals: %w", err)
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := dayStart.AddDate(0, 0, -6)
	err = s.db.QueryRowContext(ctx, `SELECT
            COALESCE(SUM(created_at >= ?), 0),
            COALESCE(SUM(created_at >= ?), 0)
         FROM call_records`,
		timestamp(dayStart), timestamp(weekStart),
	).Scan(&stats.CallsToday, &stats.CallsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("aggregate recency: %w", err)
	}

	stats.Sentiments, err = s.sentimentCounts(ctx)
	if err != nil {
		return nil, err
	}

	for _, stage := range Stages() {
		cols, err := columnsFor(stage)
		if err != nil {
			return nil, err
		}
		counts, err := s.stageCounts(ctx, cols.status)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s counts: %w", stage, err)
		}
		switch stage {
		case StageTranscription:
			stats.Transcription = counts
		case StageAnalysis:
			stats.Analysis = counts
		case StageAlert:
			stats.Alert = counts
		}
	}
	return stats, nil
}

func (s *Store) sentimentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sentiment, COUNT(1) FROM call_records
         WHERE analysis_status = 'success' AND sentiment != ''
         GROUP BY sentiment`)
	if err != nil {
		return nil, fmt.Errorf("aggregate sentiment: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var sentiment string
		var count int
		if err := rows.Scan(&sentiment, &count); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		counts[sentiment] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sentiment: %w", err)
	}
	return counts, nil
}

func (s *Store) stageCounts(ctx context.Context, statusColumn string) (StageCounts, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+statusColumn+`, COUNT(1) FROM call_records GROUP BY `+statusColumn,
	)
	if err != nil {
		return StageCounts{}, err
	}
	defer func() { _ = rows.Close() }()

	var counts StageCounts
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StageCounts{}, err
		}
		switch StageStatus(status) {
		case StatusPending:
			counts.Pending = count
		case StatusProcessing:
			counts.Processing = count
		case StatusSuccess:
			counts.Success = count
		case StatusFailed:
			counts.Failed = count
		case StatusNotNeeded:
			counts.NotNeeded = count
		}
	}
	return counts, rows.Err()
}
