// Package handlers exposes the daily check over HTTP.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/modules/dailycheck"
)

// Handler handles daily check HTTP requests
type Handler struct {
	service *dailycheck.Service
	resp    *api.Responder
	log     zerolog.Logger
}

// NewHandler creates a new daily check handler
func NewHandler(service *dailycheck.Service, resp *api.Responder, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		resp:    resp,
		log:     log.With().Str("handler", "dailycheck").Logger(),
	}
}

// HandleRunCheck runs the daily check on demand, regardless of auto-check
// POST /api/cron
func (h *Handler) HandleRunCheck(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.CheckAndUpdate(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}

	h.log.Info().
		Bool("has_changed", result.HasChanged).
		Bool("skipped", result.Skipped).
		Msg("Daily check triggered via API")
	h.resp.JSON(w, r, http.StatusOK, result)
}
