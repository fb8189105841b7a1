package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/correlation"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
	"github.com/ternarybob/loraforge/internal/store"
)

// newRunningJobStore seeds a MemStore with one running job so Progress's
// store.Update(expectedStatus=running) calls succeed.
func newRunningJobStore(t *testing.T, jobID string) interfaces.JobStore {
	t.Helper()
	s := store.NewMemStore()
	now := time.Now().UTC()
	job := models.NewJob(jobID, models.JobTypeTraining, "api-aaaaaaaaaaaa", nil)
	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	job.LastHeartbeat = &now
	require.NoError(t, s.Create(context.Background(), job))
	return s
}

func TestJobLogger_InfoPublishesToHistory(t *testing.T) {
	bus := newTestBus(t)
	ctx := correlation.WithID(context.Background(), "api-aaaaaaaaaaaa")
	s := newRunningJobStore(t, "train-aaaaaaaaaaaa")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-aaaaaaaaaaaa")
	logger.Info("job accepted", "job.started", map[string]interface{}{"steps": 10})

	history, err := bus.History(ctx, "train-aaaaaaaaaaaa", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LogLevelInfo, history[0].Level)
	assert.Equal(t, "api-aaaaaaaaaaaa", history[0].CorrelationID)
}

func TestJobLogger_ProgressCarriesStageAndMetrics(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-bbbbbbbbbbbb")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-bbbbbbbbbbbb")
	loss := 0.42
	lr := 0.0001
	eta := 120.0
	logger.Progress(models.StageTraining, 5, 100, 5.0, &loss, &lr, &eta, "step 5")

	history, err := bus.History(ctx, "train-bbbbbbbbbbbb", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StageTraining, history[0].Stage)
	assert.Equal(t, 5, history[0].Step)
	require.NotNil(t, history[0].Loss)
	assert.Equal(t, 0.42, *history[0].Loss)
}

func TestJobLogger_ProgressPersistsToStore(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-eeeeeeeeeeee")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-eeeeeeeeeeee")

	before, err := s.Get(ctx, "train-eeeeeeeeeeee")
	require.NoError(t, err)
	require.NotNil(t, before.StartedAt)

	loss := 0.1
	logger.Progress(models.StageTraining, 50, 100, 50.0, &loss, nil, nil, "step 50")

	after, err := s.Get(ctx, "train-eeeeeeeeeeee")
	require.NoError(t, err)
	assert.Equal(t, 50, after.CurrentStep)
	assert.Equal(t, 100, after.TotalSteps)
	assert.Equal(t, 50.0, after.ProgressPct)
	require.NotNil(t, after.LastHeartbeat)
	assert.True(t, after.LastHeartbeat.After(*before.StartedAt) || after.LastHeartbeat.Equal(*before.StartedAt))
}

func TestJobLogger_SamplePublishesStepAndPath(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-cccccccccccc")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-cccccccccccc")
	logger.Sample(10, "/volume/jobs/train-cccccccccccc/samples/010.png")

	history, err := bus.History(ctx, "train-cccccccccccc", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "training.sample", history[0].Event)
	assert.Equal(t, 10, history[0].Step)
}

func TestJobLogger_ErrorLevelRecorded(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-dddddddddddd")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-dddddddddddd")
	logger.Error("plugin crashed", "job.failed", nil)

	history, err := bus.History(ctx, "train-dddddddddddd", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LogLevelError, history[0].Level)
}

func TestJobLogger_CompleteSetsStatus(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-ffffffffffff")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-ffffffffffff")
	logger.Complete("job completed", map[string]interface{}{"artifact_path": "out.safetensors"})

	history, err := bus.History(ctx, "train-ffffffffffff", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.JobStatusCompleted, history[0].Status)
}

func TestJobLogger_FailSetsStatusAndErrorFields(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-gggggggggggg")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-gggggggggggg")
	logger.Fail("job failed", "training.failed", "boom", "PluginError")

	history, err := bus.History(ctx, "train-gggggggggggg", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.JobStatusFailed, history[0].Status)
	assert.Equal(t, "boom", history[0].Error)
	assert.Equal(t, "PluginError", history[0].ErrorType)
}

func TestJobLogger_CancelledSetsStatus(t *testing.T) {
	bus := newTestBus(t)
	ctx := context.Background()
	s := newRunningJobStore(t, "train-hhhhhhhhhhhh")

	logger := NewJobLogger(ctx, bus, s, common.GetLogger(), "train-hhhhhhhhhhhh")
	logger.Cancelled("job cancelled")

	history, err := bus.History(ctx, "train-hhhhhhhhhhhh", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.JobStatusCancelled, history[0].Status)
}
