// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

const heartbeatInterval = 15 * time.Second
const historyReplayLimit = 50

// StreamHandler implements GET /jobs/{id}/stream: snapshot on connect, up
// to 50 historical events, then a live forward of every subsequent event
// until the job reaches a terminal state.
type StreamHandler struct {
	store  interfaces.JobStore
	bus    interfaces.EventBus
	logger arbor.ILogger

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewStreamHandler constructs a StreamHandler.
func NewStreamHandler(store interfaces.JobStore, bus interfaces.EventBus, logger arbor.ILogger) *StreamHandler {
	return &StreamHandler{store: store, bus: bus, logger: logger, shutdown: make(chan struct{})}
}

// Shutdown broadcasts a server.shutdown error event to every open stream
// before closing it. Safe to call more than once.
func (h *StreamHandler) Shutdown() {
	h.shutdownOnce.Do(func() { close(h.shutdown) })
}

// Stream handles GET /jobs/{id}/stream.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// snapshot event: the job's current state as a TrainingProgressEvent.
	h.sendEvent(w, flusher, "snapshot", h.snapshotEvent(job))

	history, err := h.bus.History(r.Context(), id, historyReplayLimit)
	if err != nil {
		h.logger.Warn().Err(err).Str("job_id", id).Msg("failed to read event history for late subscriber")
	}
	for _, entry := range history {
		h.forward(w, flusher, entry)
	}

	if job.Status.IsTerminal() {
		return
	}

	ch, unsubscribe := h.bus.Subscribe(id)
	defer unsubscribe()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, open := <-ch:
			if !open {
				return
			}
			if h.forward(w, flusher, entry) {
				return
			}
		case <-ticker.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		case <-h.shutdown:
			h.sendEvent(w, flusher, "error", map[string]string{"error": "server.shutdown"})
			return
		}
	}
}

// forward writes entry as a progress/complete/error SSE frame and reports
// whether the stream should now close.
func (h *StreamHandler) forward(w http.ResponseWriter, flusher http.Flusher, entry models.JobLogEntry) bool {
	progress := entry.ToProgressEvent()

	name := "progress"
	switch entry.Status {
	case models.JobStatusCompleted:
		name = "complete"
	case models.JobStatusFailed, models.JobStatusCancelled:
		name = "error"
	}

	h.sendEvent(w, flusher, name, progress)
	return name == "complete" || name == "error"
}

func (h *StreamHandler) snapshotEvent(job *models.Job) models.TrainingProgressEvent {
	return models.TrainingProgressEvent{
		JobID:         job.ID,
		CorrelationID: job.CorrelationID,
		Timestamp:     job.CreatedAt.UnixMilli(),
		Status:        job.Status,
		Step:          job.CurrentStep,
		StepsTotal:    job.TotalSteps,
		ProgressPct:   job.ProgressPct,
		Error:         job.ErrorMessage,
		ErrorType:     job.ErrorType,
	}
}

func (h *StreamHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal SSE event")
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
