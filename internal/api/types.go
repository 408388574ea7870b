package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// StageState describes one stage of a call record in a transport-friendly
// format.
type StageState struct {
	Status        string `json:"status"`
	StartedAt     string `json:"startedAt,omitempty"`
	CompletedAt   string `json:"completedAt,omitempty"`
	Error         string `json:"error,omitempty"`
	Retries       int    `json:"retries"`
	NextAttemptAt string `json:"nextAttemptAt,omitempty"`
}

// Call describes a call record in a transport-friendly format.
type Call struct {
	ID              string   `json:"id"`
	CallID          string   `json:"callId"`
	RecordingURL    string   `json:"recordingUrl"`
	FromNumber      string   `json:"fromNumber,omitempty"`
	ToNumber        string   `json:"toNumber,omitempty"`
	AgentName       string   `json:"agentName,omitempty"`
	Department      string   `json:"department,omitempty"`
	Direction       string   `json:"direction,omitempty"`
	CallTime        string   `json:"callTime,omitempty"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
	Language        string   `json:"language,omitempty"`
	CorrelationID   string   `json:"correlationId,omitempty"`
	Transcript      string   `json:"transcript,omitempty"`
	Score           int      `json:"score,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Sentiment       string   `json:"sentiment,omitempty"`
	HasWarning      bool     `json:"hasWarning"`
	WarningReasons  []string `json:"warningReasons,omitempty"`
	AlertSentAt     string   `json:"alertSentAt,omitempty"`

	Transcription StageState `json:"transcription"`
	Analysis      StageState `json:"analysis"`
	Alert         StageState `json:"alert"`

	Done      bool   `json:"done"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// StageCounts aggregates record counts per status for one stage.
type StageCounts struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Success    int `json:"success"`
	Failed     int `json:"failed"`
	NotNeeded  int `json:"notNeeded"`
}

// Stats summarizes pipeline state across all call records.
type Stats struct {
	Total         int            `json:"total"`
	Warnings      int            `json:"warnings"`
	AverageScore  float64        `json:"averageScore"`
	CallsToday    int            `json:"callsToday"`
	CallsThisWeek int            `json:"callsThisWeek"`
	Sentiments    map[string]int `json:"sentiments,omitempty"`
	Transcription StageCounts    `json:"transcription"`
	Analysis      StageCounts    `json:"analysis"`
	Alert         StageCounts    `json:"alert"`
}

// WorkerStatus reports one worker loop's heartbeat and counters.
type WorkerStatus struct {
	WorkerType     string `json:"workerType"`
	State          string `json:"state"`
	LastHeartbeat  string `json:"lastHeartbeat,omitempty"`
	ProcessedCount int    `json:"processedCount"`
	FailedCount    int    `json:"failedCount"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// WorkerHealth mirrors readiness reporting for pipeline workers.
type WorkerHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// PipelineStatus summarizes pipeline execution state.
type PipelineStatus struct {
	Running      bool           `json:"running"`
	WorkerHealth []WorkerHealth `json:"workerHealth"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	Pipeline     PipelineStatus `json:"pipeline"`
	Workers      []WorkerStatus `json:"workers"`
}

// CallListResponse wraps a page of call records for API responses.
type CallListResponse struct {
	Calls  []Call `json:"calls"`
	Total  int    `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// CallResponse wraps a single call record.
type CallResponse struct {
	Call Call `json:"call"`
}

// WorkersResponse wraps worker heartbeat rows.
type WorkersResponse struct {
	Workers []WorkerStatus `json:"workers"`
}

// RetryOutcome names the result of a retry request for one record.
type RetryOutcome string

const (
	RetryDone         RetryOutcome = "retried"
	RetryRescheduled  RetryOutcome = "rescheduled"
	RetryNotFound     RetryOutcome = "not_found"
	RetryNotRetryable RetryOutcome = "not_retryable"
)

// RetryResult reports what a retry request did to a record.
type RetryResult struct {
	ID      string       `json:"id"`
	Stage   string       `json:"stage,omitempty"`
	Outcome RetryOutcome `json:"outcome"`
	Status  string       `json:"status,omitempty"`
}
