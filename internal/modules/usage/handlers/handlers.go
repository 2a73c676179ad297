// Package handlers provides HTTP handlers for formation usage statistics.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/modules/usage"
)

// Handler handles usage HTTP requests
type Handler struct {
	tracker *usage.Tracker
	resp    *api.Responder
	log     zerolog.Logger
}

// NewHandler creates a new usage handler
func NewHandler(tracker *usage.Tracker, resp *api.Responder, log zerolog.Logger) *Handler {
	return &Handler{
		tracker: tracker,
		resp:    resp,
		log:     log.With().Str("handler", "usage").Logger(),
	}
}

// HandleGetUsage returns every usage record
// GET /api/usage
func (h *Handler) HandleGetUsage(w http.ResponseWriter, r *http.Request) {
	records, err := h.tracker.List(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, records)
}

// HandleGetSummary returns distribution statistics
// GET /api/usage/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.Summary(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, summary)
}

// HandleRecalculate recomputes every usage percentage
// POST /api/usage/recalculate
func (h *Handler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	records, err := h.tracker.RecalculateAll(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.log.Info().Int("records", len(records)).Msg("Usage recalculated via API")
	h.resp.JSON(w, r, http.StatusOK, records)
}
