// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/loraforge/internal/common"
	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// LogHandler implements the log-view and raw-log-download endpoints -
// both read entries directly from a job's events.jsonl; the Job Store is
// consulted only to answer 404 for an unknown job.
type LogHandler struct {
	store  interfaces.JobStore
	config *common.Config
	logger arbor.ILogger
}

// NewLogHandler constructs a LogHandler.
func NewLogHandler(store interfaces.JobStore, config *common.Config, logger arbor.ILogger) *LogHandler {
	return &LogHandler{store: store, config: config, logger: logger}
}

func (h *LogHandler) eventFilePath(jobID string) string {
	return filepath.Join(h.config.Processing.VolumeRoot, "logs", "jobs", jobID, "events.jsonl")
}

// View handles GET /jobs/{id}/logs/view?level=&event=&limit=&offset=.
func (h *LogHandler) View(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.store.Get(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	level := strings.ToUpper(r.URL.Query().Get("level"))
	eventSubstr := r.URL.Query().Get("event")
	limit := parseIntOrDefault(r.URL.Query().Get("limit"), 100)
	offset := parseIntOrDefault(r.URL.Query().Get("offset"), 0)

	entries, total, err := h.readFiltered(id, level, eventSubstr)
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", id).Msg("failed to read events for log view")
		WriteError(w, http.StatusInternalServerError, "failed to read event log")
		return
	}

	paged := paginate(entries, offset, limit)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": paged,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// readFiltered reads the job's event file and returns entries matching
// level/event, tolerating a missing file and skipping malformed lines with
// an internal (never surfaced) counter.
func (h *LogHandler) readFiltered(jobID, level, eventSubstr string) ([]models.JobLogEntry, int, error) {
	f, err := os.Open(h.eventFilePath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	var matched []models.JobLogEntry
	var malformed int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry models.JobLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			malformed++
			continue
		}
		if level != "" && string(entry.Level) != level {
			continue
		}
		if eventSubstr != "" && !strings.Contains(entry.Event, eventSubstr) {
			continue
		}
		matched = append(matched, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if malformed > 0 {
		h.logger.Debug().Int("skipped", malformed).Str("job_id", jobID).Msg("skipped malformed event lines in log view")
	}
	return matched, len(matched), nil
}

func paginate(entries []models.JobLogEntry, offset, limit int) []models.JobLogEntry {
	if limit <= 0 {
		return []models.JobLogEntry{}
	}
	if offset >= len(entries) {
		return []models.JobLogEntry{}
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}

func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Download handles GET /jobs/{id}/logs, streaming events.jsonl verbatim.
func (h *LogHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !IsValidJobID(id) {
		WriteError(w, http.StatusBadRequest, "invalid job id")
		return
	}
	if _, err := h.store.Get(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	path := h.eventFilePath(id)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.jsonl", id))
			return
		}
		h.logger.Error().Err(err).Str("job_id", id).Msg("failed to open event log for download")
		WriteError(w, http.StatusInternalServerError, "failed to read event log")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.jsonl", id))
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn().Err(err).Str("job_id", id).Msg("client disconnected during log download")
	}
}
