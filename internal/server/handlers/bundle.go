// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/bundle"
	"github.com/ternarybob/loraforge/internal/interfaces"
)

// BundleHandler implements GET /jobs/{id}/debug-bundle.
type BundleHandler struct {
	store     interfaces.JobStore
	assembler *bundle.Assembler
	logger    arbor.ILogger
}

// NewBundleHandler constructs a BundleHandler.
func NewBundleHandler(store interfaces.JobStore, assembler *bundle.Assembler, logger arbor.ILogger) *BundleHandler {
	return &BundleHandler{store: store, assembler: assembler, logger: logger}
}

// Download handles GET /jobs/{id}/debug-bundle.
func (h *BundleHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s-debug-bundle.zip", id))

	if err := h.assembler.Write(w, job); err != nil {
		h.logger.Error().Err(err).Str("job_id", id).Msg("failed to assemble debug bundle")
	}
}
