// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobType identifies the kind of work a Job performs.
type JobType string

const (
	JobTypeTraining   JobType = "training"
	JobTypeGeneration JobType = "generation"
)

// JobStatus is the job lifecycle state. Terminal states (Completed, Failed,
// Cancelled) are write-once: once reached, no further transition is valid.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether status is one from which no further
// transition is valid.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// Job is the durable record of a unit of work, owned by the Job Store for
// its entire lifetime and deleted only by explicit operator action.
type Job struct {
	ID             string                 `json:"id" badgerhold:"key"`
	Type           JobType                `json:"type" badgerhold:"index"`
	Status         JobStatus              `json:"status" badgerhold:"index"`
	CorrelationID  string                 `json:"correlation_id"`
	Config         map[string]interface{} `json:"config"`
	ProgressPct    float64                `json:"progress_pct"`
	CurrentStep    int                    `json:"current_step"`
	TotalSteps     int                    `json:"total_steps"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	ErrorType      string                 `json:"error_type,omitempty"`
	RetryCount     int                    `json:"retry_count"`
	ArtifactPath   string                 `json:"artifact_path,omitempty"`
	CreatedAt      time.Time              `json:"created_at" badgerhold:"index"`
	StartedAt      *time.Time             `json:"started_at,omitempty"`
	EndedAt        *time.Time             `json:"ended_at,omitempty"`
	LastHeartbeat  *time.Time             `json:"last_heartbeat,omitempty"`
}

// NewJob constructs a freshly queued Job. id and correlationID are supplied
// by the caller (generated via common.NewJobID / correlation.NewID) so the
// model package stays free of id-generation policy.
func NewJob(id string, jobType JobType, correlationID string, config map[string]interface{}) *Job {
	return &Job{
		ID:            id,
		Type:          jobType,
		Status:        JobStatusQueued,
		CorrelationID: correlationID,
		Config:        config,
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate checks the invariants a Job must hold: terminal states carry
// EndedAt, a running job carries StartedAt, progress is in range, and
// current/total steps are consistent.
func (j *Job) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job: id is required")
	}
	if j.Type != JobTypeTraining && j.Type != JobTypeGeneration {
		return fmt.Errorf("job %s: invalid type %q", j.ID, j.Type)
	}
	if j.ProgressPct < 0 || j.ProgressPct > 100 {
		return fmt.Errorf("job %s: progress_pct %v out of range [0,100]", j.ID, j.ProgressPct)
	}
	if j.TotalSteps > 0 && j.CurrentStep > j.TotalSteps {
		return fmt.Errorf("job %s: current_step %d exceeds total_steps %d", j.ID, j.CurrentStep, j.TotalSteps)
	}
	if j.Status.IsTerminal() && j.EndedAt == nil {
		return fmt.Errorf("job %s: terminal status %q requires ended_at", j.ID, j.Status)
	}
	if j.Status == JobStatusRunning && j.StartedAt == nil {
		return fmt.Errorf("job %s: running status requires started_at", j.ID)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate a working copy and swap
// the pointer atomically under the store's lock, never mutating a Job
// another goroutine may be reading.
func (j *Job) Clone() *Job {
	clone := *j
	if j.Config != nil {
		clone.Config = make(map[string]interface{}, len(j.Config))
		for k, v := range j.Config {
			clone.Config[k] = v
		}
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		clone.StartedAt = &t
	}
	if j.EndedAt != nil {
		t := *j.EndedAt
		clone.EndedAt = &t
	}
	if j.LastHeartbeat != nil {
		t := *j.LastHeartbeat
		clone.LastHeartbeat = &t
	}
	return &clone
}

// ToJSON serializes the job to its wire representation.
func (j *Job) ToJSON() ([]byte, error) {
	return json.Marshal(j)
}

// JobFromJSON parses a Job from its wire representation.
func JobFromJSON(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parsing job json: %w", err)
	}
	return &j, nil
}

// JobListOptions filters and paginates JobStore.List results.
type JobListOptions struct {
	Status  JobStatus
	Type    JobType
	Limit   int
	Offset  int
	OrderBy string // defaults to "CreatedAt" descending
}
