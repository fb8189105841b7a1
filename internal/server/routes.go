// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"

	"github.com/ternarybob/loraforge/internal/models"
)

// setupRoutes configures the full HTTP surface using Go 1.22+ ServeMux
// pattern matching - method-prefixed patterns and {id} path values,
// instead of the manual path-suffix parsing an older stdlib required.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	a := s.app

	mux.HandleFunc("POST /api/training", a.JobHandler.Create(models.JobTypeTraining))
	mux.HandleFunc("GET /api/training", a.JobHandler.List(models.JobTypeTraining))
	mux.HandleFunc("GET /api/training/{id}", a.JobHandler.Get(models.JobTypeTraining))
	mux.HandleFunc("POST /api/training/{id}/cancel", a.JobHandler.Cancel(models.JobTypeTraining))

	mux.HandleFunc("POST /api/generation", a.JobHandler.Create(models.JobTypeGeneration))
	mux.HandleFunc("GET /api/generation", a.JobHandler.List(models.JobTypeGeneration))
	mux.HandleFunc("GET /api/generation/{id}", a.JobHandler.Get(models.JobTypeGeneration))
	mux.HandleFunc("POST /api/generation/{id}/cancel", a.JobHandler.Cancel(models.JobTypeGeneration))

	mux.HandleFunc("GET /api/jobs/{id}/stream", a.StreamHandler.Stream)
	mux.HandleFunc("GET /api/jobs/{id}/logs/view", a.LogHandler.View)
	mux.HandleFunc("GET /api/jobs/{id}/logs", a.LogHandler.Download)
	mux.HandleFunc("GET /api/jobs/{id}/artifacts", a.ArtifactHandler.List)
	mux.HandleFunc("GET /api/jobs/{id}/debug-bundle", a.BundleHandler.Download)

	mux.HandleFunc("GET /api/health", a.HealthHandler.Health)
	mux.HandleFunc("GET /api/ready", a.HealthHandler.Ready)
	mux.HandleFunc("GET /api/info", a.HealthHandler.Info)

	// Dev-mode-only operational endpoint, deliberately outside /api: it
	// stops the process rather than serving the job-orchestration surface.
	mux.HandleFunc("POST /shutdown", s.ShutdownHandler)

	return mux
}
