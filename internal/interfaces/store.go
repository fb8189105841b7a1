// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/loraforge/internal/models"
)

// ErrJobNotFound is returned when a lookup or update targets an unknown job id.
var ErrJobNotFound = newStoreError("job not found")

// ErrTerminalTransition is returned when a caller attempts to transition a
// job that is already in a terminal state (completed/failed/cancelled).
var ErrTerminalTransition = newStoreError("job is already in a terminal state")

type storeError string

func newStoreError(msg string) error { return storeError(msg) }
func (e storeError) Error() string   { return string(e) }

// JobStore persists Job records keyed by id. Updates are optimistic: the
// caller passes the expected current status; any update of a job that is
// already terminal rejects with ErrTerminalTransition.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, opts models.JobListOptions) ([]*models.Job, error)
	// Update applies patch to the stored job after checking expectedStatus
	// still matches the current status, then writes a new copy and swaps
	// the pointer - never mutating the stored Job in place.
	Update(ctx context.Context, id string, expectedStatus models.JobStatus, patch func(*models.Job)) (*models.Job, error)
	// GetStaleJobs returns jobs in JobStatusRunning whose LastHeartbeat is
	// older than staleAfter, used by the reconciliation sweep.
	GetStaleJobs(ctx context.Context, staleAfter time.Duration) ([]*models.Job, error)
	// MarkRunningJobsAsPending flips every running job back to queued, used
	// on graceful worker shutdown so in-flight work survives a restart.
	MarkRunningJobsAsPending(ctx context.Context, reason string) (int, error)
	Close() error
}
