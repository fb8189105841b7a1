package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/eventbus"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/ternarybob/loraforge/internal/queue"
	"github.com/ternarybob/loraforge/internal/store"
	"path/filepath"
)

func newTestExecutor(t *testing.T) (*Executor, *store.BadgerDB) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exec.db")

	db, err := store.NewBadgerDB(common.GetLogger(), &common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	jobStore := store.NewBadgerJobStore(db, common.GetLogger())
	q, err := queue.NewBadgerQueue(db.Store(), 200*time.Millisecond, 5)
	require.NoError(t, err)
	bus := eventbus.New(t.TempDir(), common.GetLogger())

	config := common.NewDefaultConfig()
	config.Queue.PollInterval = "10ms"
	config.Processing.ReconcileSchedule = "@every 1h"

	exec := New(q, jobStore, bus, NewRegistry(true), common.GetLogger(), config)
	return exec, db
}

func TestExecutor_HandleCompletesJob(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()

	job := models.NewJob("train-aaaaaaaaaaaa", models.JobTypeTraining, "api-bbbbbbbbbbbb", map[string]interface{}{"steps": float64(3)})
	require.NoError(t, exec.store.Create(ctx, job))

	queueName := models.QueueName(exec.config.Queue.QueueNamePrefix, models.JobTypeTraining)
	require.NoError(t, exec.queue.Enqueue(ctx, queueName, models.Envelope{JobID: job.ID, CorrelationID: job.CorrelationID, EnqueuedAt: time.Now().UTC()}))

	exec.pollOnce(ctx)

	got, err := exec.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.NotNil(t, got.EndedAt)
	assert.Equal(t, "training.safetensors", got.ArtifactPath)
}

func TestExecutor_HandleSkipsAlreadyCancelledJob(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()

	job := models.NewJob("train-cccccccccccc", models.JobTypeTraining, "api-dddddddddddd", nil)
	require.NoError(t, exec.store.Create(ctx, job))

	ended := time.Now().UTC()
	_, err := exec.store.Update(ctx, job.ID, models.JobStatusQueued, func(j *models.Job) {
		j.Status = models.JobStatusCancelled
		j.EndedAt = &ended
	})
	require.NoError(t, err)

	queueName := models.QueueName(exec.config.Queue.QueueNamePrefix, models.JobTypeTraining)
	require.NoError(t, exec.queue.Enqueue(ctx, queueName, models.Envelope{JobID: job.ID, CorrelationID: job.CorrelationID, EnqueuedAt: time.Now().UTC()}))

	exec.pollOnce(ctx)

	got, err := exec.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, got.Status)
}

func TestExecutor_HandleFailsJobWithNoPlugin(t *testing.T) {
	exec, _ := newTestExecutor(t)
	exec.registry = Registry{} // simulate an unregistered job type
	ctx := context.Background()

	job := models.NewJob("train-eeeeeeeeeeee", models.JobTypeTraining, "api-ffffffffffff", nil)
	require.NoError(t, exec.store.Create(ctx, job))

	queueName := models.QueueName(exec.config.Queue.QueueNamePrefix, models.JobTypeTraining)
	require.NoError(t, exec.queue.Enqueue(ctx, queueName, models.Envelope{JobID: job.ID, CorrelationID: job.CorrelationID, EnqueuedAt: time.Now().UTC()}))

	exec.pollOnce(ctx)

	got, err := exec.store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, "PluginNotFound", got.ErrorType)
}

func TestExecutor_ReconcileStaleJobsFailsIndividually(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()

	stale := models.NewJob("train-staleaaaaaa", models.JobTypeTraining, "api-staleaaaaaa", nil)
	require.NoError(t, exec.store.Create(ctx, stale))
	fresh := models.NewJob("train-freshaaaaaa", models.JobTypeTraining, "api-freshaaaaaa", nil)
	require.NoError(t, exec.store.Create(ctx, fresh))

	old := time.Now().UTC().Add(-10 * time.Minute)
	recent := time.Now().UTC()

	_, err := exec.store.Update(ctx, stale.ID, models.JobStatusQueued, func(j *models.Job) {
		j.Status = models.JobStatusRunning
		j.StartedAt = &old
		j.LastHeartbeat = &old
	})
	require.NoError(t, err)

	_, err = exec.store.Update(ctx, fresh.ID, models.JobStatusQueued, func(j *models.Job) {
		j.Status = models.JobStatusRunning
		j.StartedAt = &recent
		j.LastHeartbeat = &recent
	})
	require.NoError(t, err)

	exec.reconcileStaleJobs(ctx, 2*time.Minute)

	// A stale job (no heartbeat within the threshold) is assumed to belong
	// to a crashed worker, so it is finalized failed with error_type
	// "worker.crash" rather than silently requeued - requeuing it would
	// risk the dead goroutine and a redelivered envelope both running it.
	gotStale, err := exec.store.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, gotStale.Status)
	assert.Equal(t, "worker.crash", gotStale.ErrorType)
	assert.NotNil(t, gotStale.EndedAt)

	history, err := exec.bus.History(ctx, stale.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, models.JobStatusFailed, last.Status)
	assert.Equal(t, "worker.crash", last.ErrorType)

	// A job still heartbeating within the threshold is left untouched.
	gotFresh, err := exec.store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRunning, gotFresh.Status)
}
