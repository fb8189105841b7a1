// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package eventbus

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/correlation"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// jobLogger is the per-job interfaces.JobLogger facade handed to a plugin
// for the duration of one Run call. Every method stamps job_id and the
// correlation id carried on ctx, publishes to the bus, and mirrors a
// structured record to the service logger so job activity also shows up
// in the worker's own log file. Progress calls additionally write through
// to the job store, since the bus event alone is not the system of record
// for ProgressPct/LastHeartbeat; the terminal methods only publish, and the
// executor writes the terminal Job.Status itself.
type jobLogger struct {
	ctx     context.Context
	bus     interfaces.EventBus
	store   interfaces.JobStore
	service arbor.ILogger
	jobID   string
	corrID  string
}

// NewJobLogger builds the JobLogger for one job execution.
func NewJobLogger(ctx context.Context, bus interfaces.EventBus, store interfaces.JobStore, service arbor.ILogger, jobID string) interfaces.JobLogger {
	return &jobLogger{
		ctx:     ctx,
		bus:     bus,
		store:   store,
		service: service,
		jobID:   jobID,
		corrID:  correlation.FromContext(ctx),
	}
}

func (l *jobLogger) publish(entry models.JobLogEntry) {
	entry.Timestamp = common.NowUnixMilli()
	entry.Service = "worker"
	entry.JobID = l.jobID
	entry.CorrelationID = l.corrID

	if err := l.bus.Publish(l.ctx, l.jobID, entry); err != nil {
		l.service.Error().Err(err).Str("job_id", l.jobID).Msg("failed to publish job event")
	}

	logEvt := l.service.Info()
	switch entry.Level {
	case models.LogLevelWarning:
		logEvt = l.service.Warn()
	case models.LogLevelError:
		logEvt = l.service.Error()
	}
	logEvt.Str("job_id", l.jobID).Str("correlation_id", l.corrID).Str("event", entry.Event).Msg(entry.Message)
}

func (l *jobLogger) Info(msg string, event string, fields map[string]interface{}) {
	l.publish(models.JobLogEntry{Level: models.LogLevelInfo, Message: msg, Event: event, Fields: fields})
}

func (l *jobLogger) Warning(msg string, event string, fields map[string]interface{}) {
	l.publish(models.JobLogEntry{Level: models.LogLevelWarning, Message: msg, Event: event, Fields: fields})
}

func (l *jobLogger) Error(msg string, event string, fields map[string]interface{}) {
	l.publish(models.JobLogEntry{Level: models.LogLevelError, Message: msg, Event: event, Fields: fields})
}

func (l *jobLogger) Sample(step int, path string) {
	l.publish(models.JobLogEntry{
		Level:      models.LogLevelInfo,
		Event:      "training.sample",
		Message:    "sample generated",
		Step:       step,
		SamplePath: path,
	})
}

// Progress publishes the training.step event and persists the same
// step/total/progress_pct, plus a refreshed LastHeartbeat, to the job
// store. This is the only point during a run a plugin reports liveness,
// so it doubles as the heartbeat the stale-job reconciler watches.
func (l *jobLogger) Progress(stage models.Stage, step, stepsTotal int, progressPct float64, loss, lr, etaSeconds *float64, msg string) {
	l.publish(models.JobLogEntry{
		Level:       models.LogLevelInfo,
		Event:       "training.step",
		Message:     msg,
		Stage:       stage,
		Step:        step,
		StepsTotal:  stepsTotal,
		ProgressPct: progressPct,
		Loss:        loss,
		LR:          lr,
		ETASeconds:  etaSeconds,
	})

	now := time.Now().UTC()
	if _, err := l.store.Update(l.ctx, l.jobID, models.JobStatusRunning, func(j *models.Job) {
		j.CurrentStep = step
		j.TotalSteps = stepsTotal
		j.ProgressPct = progressPct
		j.LastHeartbeat = &now
	}); err != nil {
		l.service.Error().Err(err).Str("job_id", l.jobID).Msg("failed to persist job progress")
	}
}

// Complete publishes the terminal completed event with Status set, so
// stream.forward knows to close the SSE connection.
func (l *jobLogger) Complete(msg string, fields map[string]interface{}) {
	l.publish(models.JobLogEntry{
		Level:   models.LogLevelInfo,
		Event:   "training.complete",
		Message: msg,
		Status:  models.JobStatusCompleted,
		Fields:  fields,
	})
}

// Fail publishes the terminal failed event with Status/Error/ErrorType
// set in their dedicated fields.
func (l *jobLogger) Fail(msg, event, errMsg, errType string) {
	l.publish(models.JobLogEntry{
		Level:     models.LogLevelError,
		Event:     event,
		Message:   msg,
		Status:    models.JobStatusFailed,
		Error:     errMsg,
		ErrorType: errType,
	})
}

// Cancelled publishes the terminal cancelled event with Status set.
func (l *jobLogger) Cancelled(msg string) {
	l.publish(models.JobLogEntry{
		Level:   models.LogLevelInfo,
		Event:   "job.cancelled",
		Message: msg,
		Status:  models.JobStatusCancelled,
	})
}
