package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"callaudit/internal/records"
)

const maxListLimit = 500

// ParseListFilter builds a record filter from dashboard query parameters.
// Unknown parameters are ignored; malformed values are reported so the
// HTTP layer can answer 400 instead of silently returning everything.
func ParseListFilter(query url.Values) (records.ListFilter, error) {
	var filter records.ListFilter

	filter.Search = strings.TrimSpace(query.Get("search"))
	filter.Sentiment = strings.TrimSpace(query.Get("sentiment"))

	statusParams := []struct {
		name   string
		target *records.StageStatus
	}{
		{"transcription_status", &filter.TranscriptionStatus},
		{"analysis_status", &filter.AnalysisStatus},
		{"alert_status", &filter.AlertStatus},
	}
	for _, param := range statusParams {
		value := strings.TrimSpace(query.Get(param.name))
		if value == "" {
			continue
		}
		status, ok := records.ParseStatus(value)
		if !ok {
			return records.ListFilter{}, fmt.Errorf("invalid %s %q", param.name, value)
		}
		*param.target = status
	}

	if value := query.Get("warnings_only"); value != "" {
		filter.WarningsOnly = value == "1" || strings.EqualFold(value, "true")
	}

	var err error
	if filter.CreatedAfter, err = parseTimeParam(query, "created_after"); err != nil {
		return records.ListFilter{}, err
	}
	if filter.CreatedBefore, err = parseTimeParam(query, "created_before"); err != nil {
		return records.ListFilter{}, err
	}

	if value := strings.TrimSpace(query.Get("limit")); value != "" {
		limit, convErr := strconv.Atoi(value)
		if convErr != nil || limit < 0 {
			return records.ListFilter{}, fmt.Errorf("invalid limit %q", value)
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		filter.Limit = limit
	}
	if value := strings.TrimSpace(query.Get("offset")); value != "" {
		offset, convErr := strconv.Atoi(value)
		if convErr != nil || offset < 0 {
			return records.ListFilter{}, fmt.Errorf("invalid offset %q", value)
		}
		filter.Offset = offset
	}

	return filter, nil
}

// parseTimeParam accepts RFC3339 timestamps or bare dates.
func parseTimeParam(query url.Values, name string) (*time.Time, error) {
	value := strings.TrimSpace(query.Get(name))
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			utc := parsed.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q", name, value)
}
