// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/correlation"
	"github.com/ternarybob/loraforge/internal/executor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// canceller is the subset of *executor.Executor the job handler needs -
// triggering the in-process cancel token of a job this process runs.
// app.NewAPI passes nil.
type canceller interface {
	Cancel(jobID string) bool
}

// JobHandler implements the create/list/fetch/cancel REST surface for both
// /training and /generation - the two routes are analogous pairs
// differing only in job type.
type JobHandler struct {
	store    interfaces.JobStore
	queue    interfaces.Queue
	registry executor.Registry
	cancel   canceller
	config   *common.Config
	logger   arbor.ILogger
}

// NewJobHandler constructs a JobHandler.
func NewJobHandler(store interfaces.JobStore, queue interfaces.Queue, registry executor.Registry, cancel canceller, config *common.Config, logger arbor.ILogger) *JobHandler {
	return &JobHandler{store: store, queue: queue, registry: registry, cancel: cancel, config: config, logger: logger}
}

type createJobRequest struct {
	CharacterID string                 `json:"character_id"`
	Config      map[string]interface{} `json:"config"`
}

type createJobResponse struct {
	ID            string           `json:"id"`
	Status        models.JobStatus `json:"status"`
	CorrelationID string           `json:"correlation_id"`
}

// Create handles POST /training and POST /generation.
func (h *JobHandler) Create(jobType models.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createJobRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		config := req.Config
		if config == nil {
			config = map[string]interface{}{}
		}
		if req.CharacterID != "" {
			config["character_id"] = req.CharacterID
		}

		if err := h.validateConfig(jobType, config); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		corrID := correlation.FromContext(r.Context())
		if corrID == "" {
			corrID = correlation.NewID("api")
		}

		job := models.NewJob(common.NewJobID(string(jobType)), jobType, corrID, config)
		if err := h.store.Create(r.Context(), job); err != nil {
			h.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to create job")
			WriteError(w, http.StatusInternalServerError, "failed to create job")
			return
		}

		queueName := models.QueueName(h.config.Queue.QueueNamePrefix, jobType)
		env := models.Envelope{JobID: job.ID, CorrelationID: job.CorrelationID, EnqueuedAt: time.Now().UTC()}
		if err := h.queue.Enqueue(r.Context(), queueName, env); err != nil {
			h.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to enqueue job")
			WriteError(w, http.StatusInternalServerError, "failed to enqueue job")
			return
		}

		WriteJSON(w, http.StatusCreated, createJobResponse{ID: job.ID, Status: job.Status, CorrelationID: job.CorrelationID})
	}
}

// validateConfig rejects config keys the registered plugin does not
// declare in its capabilities, returning 400 naming the backend and
// reason. A job type with no plugin registered (production backends not
// wired in this tree) is left unvalidated - it still enqueues, and the
// executor rejects it at dequeue with PluginNotFound.
func (h *JobHandler) validateConfig(jobType models.JobType, config map[string]interface{}) error {
	caps, ok := h.registry.Capabilities(jobType)
	if !ok {
		return nil
	}
	for key := range config {
		if key == "character_id" {
			continue
		}
		if _, allowed := caps.Parameters[key]; !allowed {
			return fmt.Errorf("unsupported config parameter %q for backend %q: %s", key, caps.Backend, "not in the plugin's declared parameter set")
		}
	}
	return nil
}

// List handles GET /training and GET /generation.
func (h *JobHandler) List(jobType models.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := models.JobListOptions{Type: jobType}
		jobs, err := h.store.List(r.Context(), opts)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to list jobs")
			WriteError(w, http.StatusInternalServerError, "failed to list jobs")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
	}
}

// Get handles GET /training/{id} and GET /generation/{id}.
func (h *JobHandler) Get(jobType models.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		job, err := h.store.Get(r.Context(), id)
		if err != nil || job.Type != jobType {
			WriteError(w, http.StatusNotFound, "job not found")
			return
		}
		WriteJSON(w, http.StatusOK, job)
	}
}

// Cancel handles POST /training/{id}/cancel and POST /generation/{id}/cancel.
// Idempotent: cancelling a job already terminal, already cancelled, or
// unknown all return 204.
func (h *JobHandler) Cancel(jobType models.JobType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		job, err := h.store.Get(r.Context(), id)
		if err != nil || job.Type != jobType {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if job.Status.IsTerminal() {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if job.Status == models.JobStatusQueued {
			// Never dequeued - the executor must not invoke the plugin
			// for a job cancelled before it was ever picked up.
			ended := time.Now().UTC()
			_, err := h.store.Update(r.Context(), job.ID, models.JobStatusQueued, func(j *models.Job) {
				j.Status = models.JobStatusCancelled
				j.EndedAt = &ended
			})
			if err != nil {
				h.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to cancel queued job")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		// Running: flip the in-process cancel token when a canceller is
		// set; the executor's finalize step writes the terminal cancelled
		// status once the plugin observes the token and returns. With no
		// canceller the job is left unchanged and 204 is still returned.
		if h.cancel != nil {
			h.cancel.Cancel(job.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
