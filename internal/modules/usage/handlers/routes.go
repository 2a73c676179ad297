package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers all usage routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/usage", func(r chi.Router) {
		r.Get("/", h.HandleGetUsage)
		r.Get("/summary", h.HandleGetSummary)
		r.Post("/recalculate", h.HandleRecalculate)
	})
}
