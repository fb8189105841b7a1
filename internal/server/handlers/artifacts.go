// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/bundle"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// ArtifactHandler implements GET /jobs/{id}/artifacts: enumerates a job's
// samples/ directory and its final artifact, returning
// {name, type, size_bytes, created_at, step, url} records.
type ArtifactHandler struct {
	store  interfaces.JobStore
	config *common.Config
	logger arbor.ILogger
}

// NewArtifactHandler constructs an ArtifactHandler.
func NewArtifactHandler(store interfaces.JobStore, config *common.Config, logger arbor.ILogger) *ArtifactHandler {
	return &ArtifactHandler{store: store, config: config, logger: logger}
}

// List handles GET /jobs/{id}/artifacts.
func (h *ArtifactHandler) List(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	artifacts := h.listSamples(job)
	if job.ArtifactPath != "" {
		artifacts = append(artifacts, h.outputArtifact(job))
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"artifacts": artifacts})
}

func (h *ArtifactHandler) listSamples(job *models.Job) []models.Artifact {
	samplesDir := filepath.Join(h.config.Processing.VolumeRoot, "logs", "jobs", job.ID, "samples")
	entries, err := os.ReadDir(samplesDir)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	artifacts := make([]models.Artifact, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(samplesDir, name))
		if err != nil {
			continue
		}
		artifact := models.Artifact{
			Name:      name,
			Type:      models.ArtifactTypeSample,
			Path:      filepath.Join("samples", name),
			URL:       "/api/jobs/" + job.ID + "/artifacts/samples/" + name,
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		}
		if step, ok := bundle.StepFromSampleName(name); ok {
			artifact.Step = &step
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts
}

func (h *ArtifactHandler) outputArtifact(job *models.Job) models.Artifact {
	path := filepath.Join(h.config.Processing.VolumeRoot, job.ArtifactPath)
	var size int64
	created := job.CreatedAt
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
		created = info.ModTime().UTC()
	}
	return models.Artifact{
		Name:      filepath.Base(job.ArtifactPath),
		Type:      models.ArtifactTypeOutput,
		Path:      job.ArtifactPath,
		URL:       "/api/jobs/" + job.ID + "/artifacts/output",
		SizeBytes: size,
		CreatedAt: created,
	}
}
