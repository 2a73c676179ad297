package server

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/satellite/internal/api"
)

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// handleHealth reports liveness and whether the repository answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Service:  "satellite",
		Backend:  s.cfg.StorageBackend,
		Database: "ok",
		Uptime:   time.Since(s.startedAt).Round(time.Second).String(),
	}

	if err := s.container.Repository.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Health check ping failed")
		status, code, message := api.Classify(err)
		s.resp.ErrorWithCode(w, r, status, code, message, err)
		return
	}

	s.resp.JSON(w, r, http.StatusOK, response)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.resp.ErrorWithCode(w, r, http.StatusNotFound, api.CodeNotFound, "Route not found", nil)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.resp.ErrorWithCode(w, r, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "Method not allowed", nil)
}
