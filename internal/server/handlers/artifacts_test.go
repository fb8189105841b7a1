// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/models"
)

func TestArtifactHandler_ListSamplesAndOutput(t *testing.T) {
	d := newTestDeps(t)
	h := NewArtifactHandler(d.store, d.config, common.GetLogger())

	job := models.NewJob(common.NewJobID("training"), models.JobTypeTraining, "api-test", map[string]interface{}{})
	job.ArtifactPath = "models/" + job.ID + ".safetensors"
	require.NoError(t, d.store.Create(t.Context(), job))

	samplesDir := filepath.Join(d.config.Processing.VolumeRoot, "logs", "jobs", job.ID, "samples")
	require.NoError(t, os.MkdirAll(samplesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(samplesDir, "step_00001.png"), []byte("x"), 0o644))

	outputPath := filepath.Join(d.config.Processing.VolumeRoot, job.ArtifactPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(outputPath), 0o755))
	require.NoError(t, os.WriteFile(outputPath, []byte("weights"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/artifacts", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Artifacts []models.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Artifacts, 2)

	assert.Equal(t, models.ArtifactTypeSample, body.Artifacts[0].Type)
	require.NotNil(t, body.Artifacts[0].Step)
	assert.Equal(t, 1, *body.Artifacts[0].Step)
	assert.Equal(t, models.ArtifactTypeOutput, body.Artifacts[1].Type)
}

func TestArtifactHandler_ListMissingJobReturns404(t *testing.T) {
	d := newTestDeps(t)
	h := NewArtifactHandler(d.store, d.config, common.GetLogger())

	req := httptest.NewRequest(http.MethodGet, "/jobs/missing/artifacts", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
