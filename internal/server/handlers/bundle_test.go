// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/bundle"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
)

func TestBundleHandler_DownloadWritesZip(t *testing.T) {
	d := newTestDeps(t)
	h := NewBundleHandler(d.store, bundle.New(d.config), common.GetLogger())

	job := models.NewJob(common.NewJobID("training"), models.JobTypeTraining, "api-test", map[string]interface{}{"steps": 2})
	require.NoError(t, d.store.Create(t.Context(), job))

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/debug-bundle", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	assert.True(t, names[job.ID+"/README.txt"])
	assert.True(t, names[job.ID+"/metadata.json"])
}

func TestBundleHandler_DownloadMissingJobReturns404(t *testing.T) {
	d := newTestDeps(t)
	h := NewBundleHandler(d.store, bundle.New(d.config), common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing/debug-bundle", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
