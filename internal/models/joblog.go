// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package models

// LogLevel is the severity of a JobLogEntry.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// JobLogEntry is the shape written to events.jsonl: line-delimited JSON
// with required keys ts/level/service/job_id/event/msg and optional
// correlation_id/fields. It is a superset of TrainingProgressEvent's
// fields, carried directly rather than embedded so the on-disk key names
// (ts, msg) can differ from the SSE wire shape's (timestamp, message)
// without a custom MarshalJSON.
type JobLogEntry struct {
	Timestamp     int64                  `json:"ts"`
	Level         LogLevel               `json:"level"`
	Service       string                 `json:"service"`
	JobID         string                 `json:"job_id"`
	Event         string                 `json:"event"`
	Message       string                 `json:"msg"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`

	Status      JobStatus `json:"status,omitempty"`
	Stage       Stage     `json:"stage,omitempty"`
	Step        int       `json:"step,omitempty"`
	StepsTotal  int       `json:"steps_total,omitempty"`
	ProgressPct float64   `json:"progress_pct,omitempty"`
	Loss        *float64  `json:"loss,omitempty"`
	LR          *float64  `json:"lr,omitempty"`
	ETASeconds  *float64  `json:"eta_seconds,omitempty"`
	SamplePath  string    `json:"sample_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorType   string    `json:"error_type,omitempty"`
	ErrorStack  string    `json:"error_stack,omitempty"`
}

// ToProgressEvent projects the subset of fields the SSE stream forwards as
// a TrainingProgressEvent.
func (e JobLogEntry) ToProgressEvent() TrainingProgressEvent {
	return TrainingProgressEvent{
		JobID:         e.JobID,
		CorrelationID: e.CorrelationID,
		Timestamp:     e.Timestamp,
		Status:        e.Status,
		Stage:         e.Stage,
		Step:          e.Step,
		StepsTotal:    e.StepsTotal,
		ProgressPct:   e.ProgressPct,
		Loss:          e.Loss,
		LR:            e.LR,
		ETASeconds:    e.ETASeconds,
		Message:       e.Message,
		SamplePath:    e.SamplePath,
		Error:         e.Error,
		ErrorType:     e.ErrorType,
		ErrorStack:    e.ErrorStack,
	}
}
