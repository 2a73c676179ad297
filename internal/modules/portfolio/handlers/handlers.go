// Package handlers provides HTTP handlers for the portfolio data set.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/domain"
	"github.com/aristath/satellite/internal/modules/formations"
	"github.com/aristath/satellite/internal/modules/portfolio"
)

const defaultHistoryLimit = 50

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	resp    *api.Responder
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, resp *api.Responder, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		resp:    resp,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetData returns the full data set. Clients sending
// Accept: application/msgpack receive it msgpack-encoded.
// GET /api/data
func (h *Handler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.GetAllData(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, data)
}

// HandleSaveData applies budget, settings and holdings edits
// POST /api/data
func (h *Handler) HandleSaveData(w http.ResponseWriter, r *http.Request) {
	var req portfolio.SaveRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	data, err := h.service.SaveData(r.Context(), req)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, data)
}

// HandleInit creates default settings and budget when absent
// POST /api/init
func (h *Handler) HandleInit(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Initialize(r.Context())
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, result)
}

// HandleGetFormations returns the formation catalog
// GET /api/formations
func (h *Handler) HandleGetFormations(w http.ResponseWriter, r *http.Request) {
	h.resp.JSON(w, r, http.StatusOK, formations.All())
}

// HandleGetTickers returns the allowed tickers, optionally filtered by ?sector=
// GET /api/tickers
func (h *Handler) HandleGetTickers(w http.ResponseWriter, r *http.Request) {
	if sector := r.URL.Query().Get("sector"); sector != "" {
		h.resp.JSON(w, r, http.StatusOK, formations.TickersBySector(sector))
		return
	}
	h.resp.JSON(w, r, http.StatusOK, formations.Tickers())
}

// HandleGetHistory returns formation transitions, newest first
// GET /api/history?limit=N
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.resp.Error(w, r, domain.NewValidationError("limit", "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	history, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, history)
}

// HandleDeleteHolding removes one holding
// DELETE /api/holdings/{id}
func (h *Handler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteHolding(r.Context(), id); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, map[string]string{"id": id})
}
