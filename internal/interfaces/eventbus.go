// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/loraforge/internal/models"
)

// EventBus fans out JobLogEntry records to subscribers for a given job_id
// while persisting them durably to that job's events.jsonl file. Publish
// appends to both destinations atomically-from-the-caller's-perspective;
// per-job event order is the order Publish was called.
type EventBus interface {
	Publish(ctx context.Context, jobID string, entry models.JobLogEntry) error
	// Subscribe returns a bounded channel of capacity 64 for jobID and a
	// teardown function. A slow subscriber has its oldest pending events
	// dropped rather than blocking the bus.
	Subscribe(jobID string) (ch <-chan models.JobLogEntry, unsubscribe func())
	// History returns up to limit of the most recent entries for jobID by
	// reading the event file's tail, for late subscribers to replay
	// recent context.
	History(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error)
	Close() error
}

// JobLogger is the thin facade the executor and plugin use to publish
// events for one specific job. Every call stamps job_id and the current
// correlation id and hands the entry to the bus, and also forwards a
// parallel record to the service logger.
type JobLogger interface {
	Info(msg string, event string, fields map[string]interface{})
	Warning(msg string, event string, fields map[string]interface{})
	Error(msg string, event string, fields map[string]interface{})
	Sample(step int, path string)
	// Progress publishes a full TrainingProgressEvent-shaped update
	// (stage/step/progress_pct/loss/lr/eta), used by the executor and
	// plugin for the high-frequency ~1Hz training.step events. It also
	// persists current_step/total_steps/progress_pct/last_heartbeat to the
	// job store, so a job's on-disk state and the SSE snapshot event
	// reflect real progress while running, and the stale-job reconciler
	// sees a live heartbeat for as long as the plugin keeps reporting.
	Progress(stage models.Stage, step, stepsTotal int, progressPct float64, loss, lr, etaSeconds *float64, msg string)
	// Complete publishes the terminal completed event, carrying
	// JobLogEntry.Status so subscribers (the SSE stream in particular)
	// know to close.
	Complete(msg string, fields map[string]interface{})
	// Fail publishes the terminal failed event, carrying
	// JobLogEntry.Status/Error/ErrorType in their dedicated fields rather
	// than the opaque Fields map.
	Fail(msg, event, errMsg, errType string)
	// Cancelled publishes the terminal cancelled event.
	Cancelled(msg string)
}
