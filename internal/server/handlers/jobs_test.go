// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
)

func newJobHandler(t *testing.T, d *testDeps) *JobHandler {
	t.Helper()
	return NewJobHandler(d.store, d.queue, d.registry, nil, d.config, common.GetLogger())
}

func createJob(t *testing.T, h *JobHandler, jobType models.JobType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/training", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Create(jobType)(rec, req)
	return rec
}

func TestJobHandler_CreateAndGet(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	rec := createJob(t, h, models.JobTypeTraining, `{"config":{"steps":3}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created createJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.JobStatusQueued, created.Status)
	assert.NotEmpty(t, created.ID)

	getReq := httptest.NewRequest(http.MethodGet, "/training/"+created.ID, nil)
	getReq.SetPathValue("id", created.ID)
	getRec := httptest.NewRecorder()
	h.Get(models.JobTypeTraining)(getRec, getReq)

	require.Equal(t, http.StatusOK, getRec.Code)
	var job models.Job
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &job))
	assert.Equal(t, created.ID, job.ID)
	assert.Equal(t, models.JobTypeTraining, job.Type)
}

func TestJobHandler_CreateRejectsUnknownParameter(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	rec := createJob(t, h, models.JobTypeTraining, `{"config":{"gpu_count":8}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobHandler_CreateRejectsMalformedBody(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	rec := createJob(t, h, models.JobTypeTraining, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobHandler_GetMissingReturns404(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	req := httptest.NewRequest(http.MethodGet, "/training/does-not-exist", nil)
	req.SetPathValue("id", "does-not-exist")
	rec := httptest.NewRecorder()
	h.Get(models.JobTypeTraining)(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobHandler_GetWrongTypeReturns404(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	rec := createJob(t, h, models.JobTypeTraining, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created createJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/generation/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	getRec := httptest.NewRecorder()
	h.Get(models.JobTypeGeneration)(getRec, req)

	assert.Equal(t, http.StatusNotFound, getRec.Code)
}

func TestJobHandler_CancelQueuedJobIsImmediate(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	rec := createJob(t, h, models.JobTypeTraining, `{}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created createJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	cancelReq := httptest.NewRequest(http.MethodPost, "/training/"+created.ID+"/cancel", nil)
	cancelReq.SetPathValue("id", created.ID)
	cancelRec := httptest.NewRecorder()
	h.Cancel(models.JobTypeTraining)(cancelRec, cancelReq)
	require.Equal(t, http.StatusNoContent, cancelRec.Code)

	job, err := d.store.Get(cancelReq.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCancelled, job.Status)
}

func TestJobHandler_CancelUnknownJobIsIdempotent(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	req := httptest.NewRequest(http.MethodPost, "/training/does-not-exist/cancel", nil)
	req.SetPathValue("id", "does-not-exist")
	rec := httptest.NewRecorder()
	h.Cancel(models.JobTypeTraining)(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJobHandler_List(t *testing.T) {
	d := newTestDeps(t)
	h := newJobHandler(t, d)

	require.Equal(t, http.StatusCreated, createJob(t, h, models.JobTypeTraining, `{}`).Code)
	require.Equal(t, http.StatusCreated, createJob(t, h, models.JobTypeTraining, `{}`).Code)
	require.Equal(t, http.StatusCreated, createJob(t, h, models.JobTypeGeneration, `{}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/training", nil)
	rec := httptest.NewRecorder()
	h.List(models.JobTypeTraining)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Jobs []models.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Jobs, 2)
}
