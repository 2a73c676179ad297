package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the daily check trigger
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/cron", h.HandleRunCheck)
}
