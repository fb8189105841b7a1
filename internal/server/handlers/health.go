// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/executor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// HealthHandler implements GET /health, /ready, and /info: liveness,
// readiness, and the plugin capability schema.
type HealthHandler struct {
	store    interfaces.JobStore
	registry executor.Registry
	config   *common.Config
	version  string
	logger   arbor.ILogger
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(store interfaces.JobStore, registry executor.Registry, config *common.Config, version string, logger arbor.ILogger) *HealthHandler {
	return &HealthHandler{store: store, registry: registry, config: config, version: version, logger: logger}
}

// Health handles GET /health - process is up, nothing more.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready - the Job Store backend must answer a query.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.List(r.Context(), models.JobListOptions{Limit: 1}); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "job store unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Info handles GET /info - the plugin capability schema for every job
// type, plus the process's operating mode.
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	capabilities := map[models.JobType]interfaces.PluginCapabilities{}
	for _, jobType := range []models.JobType{models.JobTypeTraining, models.JobTypeGeneration} {
		if caps, ok := h.registry.Capabilities(jobType); ok {
			capabilities[jobType] = caps
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":      h.version,
		"mode":         h.config.Processing.Mode,
		"capabilities": capabilities,
	})
}
