// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package executor runs the single long-running task per worker process
// that dequeues job envelopes, invokes the matching plugin, and finalizes
// the job's terminal state.
package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/correlation"
	"github.com/ternarybob/loraforge/internal/eventbus"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/ternarybob/loraforge/internal/redact"
)

// Registry maps a job type to the plugin that performs its work.
type Registry map[models.JobType]interfaces.Plugin

// NewRegistry builds the plugin registry for the configured mode.
// fast-test mode wires the deterministic mock plugins in place of real
// GPU backends.
func NewRegistry(fastTest bool) Registry {
	if fastTest {
		return Registry{
			models.JobTypeTraining:   newMockTrainingPlugin(),
			models.JobTypeGeneration: newMockGenerationPlugin(),
		}
	}
	// Production backends are out-of-process collaborators invoked through
	// this same Plugin contract; none are wired in this tree (see
	// DESIGN.md's "teacher dependencies not wired").
	return Registry{}
}

// Capabilities returns the plugin capabilities registered for jobType, for
// the API's config validator. ok is false if no plugin is wired for the
// type, in which case a job may still be created (it simply fails at
// dequeue time with PluginNotFound).
func (r Registry) Capabilities(jobType models.JobType) (caps interfaces.PluginCapabilities, ok bool) {
	plugin, found := r[jobType]
	if !found {
		return interfaces.PluginCapabilities{}, false
	}
	return plugin.Capabilities(), true
}

// Executor is the dequeue -> execute -> finalize loop for one worker
// process, plus the cron-driven stale-job reconciliation sweep.
type Executor struct {
	queue    interfaces.Queue
	store    interfaces.JobStore
	bus      interfaces.EventBus
	registry Registry
	logger   arbor.ILogger
	config   *common.Config

	queueNames []string

	cancelMu     sync.Mutex
	cancelTokens map[string]*cancelToken

	cron *cron.Cron
}

// New constructs an Executor wired to the given store/queue/bus and the
// process's configured queue names.
func New(q interfaces.Queue, store interfaces.JobStore, bus interfaces.EventBus, registry Registry, logger arbor.ILogger, config *common.Config) *Executor {
	return &Executor{
		queue:        q,
		store:        store,
		bus:          bus,
		registry:     registry,
		logger:       logger,
		config:       config,
		queueNames:   []string{models.QueueName(config.Queue.QueueNamePrefix, models.JobTypeTraining), models.QueueName(config.Queue.QueueNamePrefix, models.JobTypeGeneration)},
		cancelTokens: make(map[string]*cancelToken),
	}
}

// Run blocks, polling every configured queue name in round-robin until ctx
// is cancelled. Spec.md §5 mandates exactly one executor task per worker
// process - callers should invoke Run exactly once.
func (e *Executor) Run(ctx context.Context) {
	e.startReconciler(ctx)
	defer e.stopReconciler()

	poll := e.config.Queue.PollIntervalDuration()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("executor loop stopping")
			return
		case <-ticker.C:
			e.pollOnce(ctx)
		}
	}
}

func (e *Executor) pollOnce(ctx context.Context) {
	for _, queueName := range e.queueNames {
		env, deleteFn, err := e.queue.Receive(ctx, queueName)
		if err == interfaces.ErrNoMessage {
			continue
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("queue", queueName).Msg("failed to receive from queue")
			continue
		}
		e.handle(ctx, env, deleteFn)
	}
}

// handle is one dequeue -> execute -> finalize cycle for a single envelope.
func (e *Executor) handle(ctx context.Context, env models.Envelope, deleteMsg func(context.Context) error) {
	jobCtx := correlation.WithID(ctx, env.CorrelationID)

	job, err := e.store.Get(jobCtx, env.JobID)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", env.JobID).Msg("dequeued envelope for unknown job")
		_ = deleteMsg(jobCtx)
		return
	}

	// The job may already be cancelled if the cancel request arrived before
	// the worker dequeued it.
	if job.Status == models.JobStatusCancelled {
		_ = deleteMsg(jobCtx)
		return
	}
	if job.Status.IsTerminal() {
		// Already finished by a previous (redelivered) attempt.
		_ = deleteMsg(jobCtx)
		return
	}

	plugin, ok := e.registry[job.Type]
	if !ok {
		e.failJob(jobCtx, job, "no plugin registered", "PluginNotFound")
		_ = deleteMsg(jobCtx)
		return
	}

	logger := eventbus.NewJobLogger(jobCtx, e.bus, e.store, e.logger, job.ID)

	now := time.Now().UTC()
	if _, err := e.store.Update(jobCtx, job.ID, job.Status, func(j *models.Job) {
		j.Status = models.JobStatusRunning
		j.StartedAt = &now
		j.LastHeartbeat = &now
	}); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to transition job to running")
		return
	}

	logger.Info("job started", "training.start", nil)

	token := e.registerCancelToken(job.ID)
	defer e.clearCancelToken(job.ID)

	result, runErr := e.runWithRecover(jobCtx, plugin, job, logger, token)

	e.finalize(jobCtx, job, result, runErr, logger)
	_ = deleteMsg(jobCtx)
}

// runWithRecover invokes the plugin, converting a panic into the same
// {error, error_type, error_stack} shape a returned error would produce.
func (e *Executor) runWithRecover(ctx context.Context, plugin interfaces.Plugin, job *models.Job, logger interfaces.JobLogger, token *cancelToken) (result interfaces.RunResult, err error) {
	done := make(chan struct{})
	var runResult interfaces.RunResult
	var runErr error

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				stack := redactedStack()
				runErr = fmt.Errorf("plugin panic: %v", r)
				runResult = interfaces.RunResult{Success: false, Error: fmt.Sprintf("%v", r)}
				logger.Error("plugin panicked", "training.failed", map[string]interface{}{"error_stack": stack})
			}
		}()
		runResult, runErr = plugin.Run(ctx, job.Config, logger, token)
	}()

	grace := e.config.Processing.CancelGraceDuration()
	if grace <= 0 {
		grace = cancelGracePeriod
	}

	select {
	case <-done:
		return runResult, runErr
	case <-ctx.Done():
		token.trigger()
		select {
		case <-done:
			return runResult, runErr
		case <-time.After(grace):
			return interfaces.RunResult{Success: false, Error: "cancelled: plugin did not return within grace period"}, nil
		}
	}
}

func redactedStack() string {
	lines := strings.Split(string(debug.Stack()), "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	return redact.String(strings.Join(lines, "\n"))
}

func (e *Executor) finalize(ctx context.Context, job *models.Job, result interfaces.RunResult, runErr error, logger interfaces.JobLogger) {
	switch {
	case runErr != nil:
		errType := "PluginError"
		e.completeJob(ctx, job, models.JobStatusFailed, func(j *models.Job) {
			j.ErrorMessage = runErr.Error()
			j.ErrorType = errType
		})
		logger.Fail("job failed", "training.failed", runErr.Error(), errType)

	case result.Error == "cancelled" || result.Error == "cancelled: plugin did not return within grace period":
		e.completeJob(ctx, job, models.JobStatusCancelled, nil)
		logger.Cancelled("job cancelled")

	case !result.Success:
		e.completeJob(ctx, job, models.JobStatusFailed, func(j *models.Job) {
			j.ErrorMessage = result.Error
			j.ErrorType = "PluginRunFailed"
		})
		logger.Fail("job failed", "training.failed", result.Error, "PluginRunFailed")

	default:
		e.completeJob(ctx, job, models.JobStatusCompleted, func(j *models.Job) {
			j.ArtifactPath = result.ArtifactPath
			j.ProgressPct = 100
		})
		logger.Complete("job completed", map[string]interface{}{"artifact_path": result.ArtifactPath, "samples": len(result.Samples)})
	}
}

func (e *Executor) completeJob(ctx context.Context, job *models.Job, status models.JobStatus, extra func(*models.Job)) {
	ended := time.Now().UTC()
	if _, err := e.store.Update(ctx, job.ID, models.JobStatusRunning, func(j *models.Job) {
		j.Status = status
		j.EndedAt = &ended
		if extra != nil {
			extra(j)
		}
	}); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Str("status", string(status)).Msg("failed to finalize job status")
	}
}

func (e *Executor) failJob(ctx context.Context, job *models.Job, message, errType string) {
	ended := time.Now().UTC()
	if _, err := e.store.Update(ctx, job.ID, job.Status, func(j *models.Job) {
		j.Status = models.JobStatusFailed
		j.EndedAt = &ended
		j.ErrorMessage = message
		j.ErrorType = errType
	}); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to mark job failed")
	}
}

func (e *Executor) registerCancelToken(jobID string) *cancelToken {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	token := newCancelToken()
	e.cancelTokens[jobID] = token
	return token
}

func (e *Executor) clearCancelToken(jobID string) {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	delete(e.cancelTokens, jobID)
}

// Cancel signals the in-process cancel token for jobID, if this executor is
// currently running it, and reports whether it was. It reaches only jobs
// run by this process: the API process is built without a canceller
// (app.NewAPI), so a cancel request for a running job sends no signal to
// the worker process. The executor re-checks the stored status only at
// dequeue, and the reconciler acts only on jobs with a stale heartbeat.
func (e *Executor) Cancel(jobID string) bool {
	e.cancelMu.Lock()
	defer e.cancelMu.Unlock()
	token, ok := e.cancelTokens[jobID]
	if ok {
		token.trigger()
	}
	return ok
}

// startReconciler schedules the cron-driven stale-job sweep: a worker
// crash leaves a job "running" with a stale heartbeat, and the sweep
// fails it.
func (e *Executor) startReconciler(ctx context.Context) {
	e.cron = cron.New()
	staleAfter := e.config.Processing.StaleAfterDuration()

	_, err := e.cron.AddFunc(e.config.Processing.ReconcileSchedule, func() {
		e.reconcileStaleJobs(ctx, staleAfter)
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to schedule stale-job reconciliation")
		return
	}
	e.cron.Start()
}

func (e *Executor) stopReconciler() {
	if e.cron != nil {
		e.cron.Stop()
	}
}

// reconcileStaleJobs marks each individually stale job (running with no
// heartbeat within staleAfter) failed with error_type "worker.crash". It
// acts only on the jobs GetStaleJobs actually found, not every running job
// - a job that is legitimately still in progress keeps reporting a live
// heartbeat via JobLogger.Progress and is left alone. A stale job is
// assumed to belong to a worker process that died mid-run: demoting it
// back to queued instead of failing it would let the still-running (but
// no-longer-heartbeating) goroutine and a freshly redelivered envelope
// execute the same job concurrently, so this always finalizes it as failed
// and publishes the matching terminal event rather than silently requeuing.
func (e *Executor) reconcileStaleJobs(ctx context.Context, staleAfter time.Duration) {
	stale, err := e.store.GetStaleJobs(ctx, staleAfter)
	if err != nil {
		e.logger.Warn().Err(err).Msg("failed to query stale jobs")
		return
	}

	for _, job := range stale {
		e.failJob(ctx, job, "no heartbeat within "+staleAfter.String(), "worker.crash")

		logger := eventbus.NewJobLogger(ctx, e.bus, e.store, e.logger, job.ID)
		logger.Fail("job failed: worker crash detected", "training.failed", "no heartbeat within "+staleAfter.String(), "worker.crash")

		e.logger.Warn().Str("job_id", job.ID).Msg("marked stale job failed after missed heartbeat")
	}
}
