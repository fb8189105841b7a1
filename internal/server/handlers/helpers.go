// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package handlers implements the job API's HTTP surface: job
// create/list/fetch/cancel, the SSE progress stream, the log-view and
// raw-log endpoints, the artifact listing, and the debug-bundle download.
package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard {"error": "..."} JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, map[string]string{"error": message})
}

// validJobID matches the id shape required before any path concatenation,
// guarding the raw log download against path traversal.
var validJobID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// IsValidJobID reports whether id is safe to use in a filesystem path.
func IsValidJobID(id string) bool {
	return id != "" && validJobID.MatchString(id)
}
