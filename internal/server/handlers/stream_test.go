// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/eventbus"
	"github.com/ternarybob/loraforge/internal/models"
)

func TestStreamHandler_TerminalJobClosesAfterSnapshot(t *testing.T) {
	d := newTestDeps(t)
	h := NewStreamHandler(d.store, d.bus, common.GetLogger())

	job := models.NewJob(common.NewJobID("training"), models.JobTypeTraining, "api-test", map[string]interface{}{})
	require.NoError(t, d.store.Create(t.Context(), job))
	ended := time.Now().UTC()
	_, err := d.store.Update(t.Context(), job.ID, models.JobStatusQueued, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.EndedAt = &ended
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/stream", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "event: snapshot")
}

func TestStreamHandler_UnknownJobReturns404(t *testing.T) {
	d := newTestDeps(t)
	h := NewStreamHandler(d.store, d.bus, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing/stream", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamHandler_ForwardsHistoryThenComplete(t *testing.T) {
	d := newTestDeps(t)
	h := NewStreamHandler(d.store, d.bus, common.GetLogger())

	job := models.NewJob(common.NewJobID("training"), models.JobTypeTraining, "api-test", map[string]interface{}{})
	require.NoError(t, d.store.Create(t.Context(), job))

	now := time.Now().UTC()
	_, err := d.store.Update(t.Context(), job.ID, models.JobStatusQueued, func(j *models.Job) {
		j.Status = models.JobStatusRunning
		j.StartedAt = &now
		j.LastHeartbeat = &now
	})
	require.NoError(t, err)

	// Drive the real JobLogger path (not hand-built JobLogEntry literals)
	// so this exercises the same Status-setting code the worker uses.
	logger := eventbus.NewJobLogger(t.Context(), d.bus, d.store, common.GetLogger(), job.ID)
	loss := 0.5
	logger.Progress(models.StageTraining, 1, 1, 100.0, &loss, nil, nil, "step 1/1")
	logger.Complete("done", map[string]interface{}{"artifact_path": "out.safetensors"})

	_, err = d.store.Update(t.Context(), job.ID, models.JobStatusRunning, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.EndedAt = &now
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/stream", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()

	h.Stream(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "event: progress")
	assert.Contains(t, body, "event: complete")
}
