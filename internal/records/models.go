package records

import (
	"strings"
	"time"
)

// Stage identifies one of the pipeline stages a call record moves through.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageAnalysis      Stage = "analysis"
	StageAlert         Stage = "alert"
)

// Stages returns the pipeline stages in processing order.
func Stages() []Stage {
	return []Stage{StageTranscription, StageAnalysis, StageAlert}
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case StageTranscription, StageAnalysis, StageAlert:
		return normalized, true
	default:
		return "", false
	}
}

// StageStatus represents the lifecycle of a single stage on a record.
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusProcessing StageStatus = "processing"
	StatusSuccess    StageStatus = "success"
	StatusFailed     StageStatus = "failed"
	// StatusNotNeeded applies only to the alert stage, for calls whose
	// analysis completed without raising a warning.
	StatusNotNeeded StageStatus = "not_needed"
)

var allStatuses = []StageStatus{
	StatusPending,
	StatusProcessing,
	StatusSuccess,
	StatusFailed,
	StatusNotNeeded,
}

var statusSet = func() map[StageStatus]struct{} {
	set := make(map[StageStatus]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known StageStatus.
func ParseStatus(value string) (StageStatus, bool) {
	normalized := StageStatus(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status will never change without operator action.
func (s StageStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusNotNeeded:
		return true
	default:
		return false
	}
}

// Sentiment values produced by the analysis stage.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// StageState captures the persisted progress of one stage on one record.
type StageState struct {
	Status        StageStatus
	StartedAt     *time.Time
	CompletedAt   *time.Time
	Error         string
	Retries       int
	NextAttemptAt *time.Time
}

// AnalysisResult is the structured outcome of scoring a transcript.
type AnalysisResult struct {
	Score          int
	Summary        string
	Sentiment      string
	Department     string
	HasWarning     bool
	WarningReasons []string
}

// CallRecord represents one recorded call persisted in SQLite.
type CallRecord struct {
	ID              string
	CallID          string
	RecordingURL    string
	FromNumber      string
	ToNumber        string
	AgentName       string
	Department      string
	Direction       string
	CallTime        *time.Time
	DurationSeconds int
	Language        string
	CorrelationID   string

	Transcript string

	Score          int
	Summary        string
	Sentiment      string
	HasWarning     bool
	WarningReasons []string

	AlertSentAt *time.Time

	Transcription StageState
	Analysis      StageState
	Alert         StageState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StageState returns the state for the named stage, or nil for an unknown stage.
func (r *CallRecord) StageState(stage Stage) *StageState {
	switch stage {
	case StageTranscription:
		return &r.Transcription
	case StageAnalysis:
		return &r.Analysis
	case StageAlert:
		return &r.Alert
	default:
		return nil
	}
}

// Done reports whether every stage has reached a terminal status.
func (r *CallRecord) Done() bool {
	return r.Transcription.Status.Terminal() &&
		r.Analysis.Status.Terminal() &&
		r.Alert.Status.Terminal()
}

// NewCall describes an incoming call to enqueue.
type NewCall struct {
	CallID          string
	RecordingURL    string
	FromNumber      string
	ToNumber        string
	AgentName       string
	Department      string
	Direction       string
	CallTime        *time.Time
	DurationSeconds int
	Language        string
	CorrelationID   string
}

// ListFilter narrows List and Count results. Zero values leave the
// corresponding dimension unconstrained.
type ListFilter struct {
	Search              string
	TranscriptionStatus StageStatus
	AnalysisStatus      StageStatus
	AlertStatus         StageStatus
	Sentiment           string
	WarningsOnly        bool
	CreatedAfter        *time.Time
	CreatedBefore       *time.Time
	Limit               int
	Offset              int
}

// StageCounts aggregates record counts per status for one stage.
type StageCounts struct {
	Pending    int
	Processing int
	Success    int
	Failed     int
	NotNeeded  int
}

// Stats summarizes pipeline state across all records.
type Stats struct {
	Total         int
	Warnings      int
	AverageScore  float64
	CallsToday    int
	CallsThisWeek int
	Sentiments    map[string]int
	Transcription StageCounts
	Analysis      StageCounts
	Alert         StageCounts
}

// WorkerState is the coarse lifecycle of a worker loop.
type WorkerState string

const (
	WorkerRunning WorkerState = "running"
	WorkerStopped WorkerState = "stopped"
	WorkerError   WorkerState = "error"
)

// WorkerStatus is one row of the worker_status liveness table.
type WorkerStatus struct {
	WorkerType     string
	State          WorkerState
	LastHeartbeat  *time.Time
	ProcessedCount int
	FailedCount    int
	UpdatedAt      time.Time
}
