// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package models

// Stage is the enumerated lifecycle coordinate a TrainingProgressEvent
// reports.
type Stage string

const (
	StageQueued           Stage = "queued"
	StageInitializing     Stage = "initializing"
	StagePreparingDataset Stage = "preparing_dataset"
	StageCaptioning       Stage = "captioning"
	StageTraining         Stage = "training"
	StageSampling         Stage = "sampling"
	StageExporting        Stage = "exporting"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
	StageCancelled        Stage = "cancelled"
)

// TrainingProgressEvent is the unit of observability: emitted every time
// something interesting happens to a job. Despite the name it carries
// both training and generation job progress - one shape serves both job
// types.
type TrainingProgressEvent struct {
	JobID         string    `json:"job_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     int64     `json:"timestamp"` // millisecond UTC
	Status        JobStatus `json:"status"`
	Stage         Stage     `json:"stage"`
	Step          int       `json:"step,omitempty"`
	StepsTotal    int       `json:"steps_total,omitempty"`
	ProgressPct   float64   `json:"progress_pct"`
	Loss          *float64  `json:"loss,omitempty"`
	LR            *float64  `json:"lr,omitempty"`
	ETASeconds    *float64  `json:"eta_seconds,omitempty"`
	Message       string    `json:"message,omitempty"`
	SamplePath    string    `json:"sample_path,omitempty"`
	Error         string    `json:"error,omitempty"`
	ErrorType     string    `json:"error_type,omitempty"`
	ErrorStack    string    `json:"error_stack,omitempty"`
}

// IsTerminal reports whether this event represents the job's final state
// (used by the SSE handler to decide when to close the stream).
func (e TrainingProgressEvent) IsTerminal() bool {
	return e.Status.IsTerminal()
}
