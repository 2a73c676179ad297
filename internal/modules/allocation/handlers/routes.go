package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/allocation", h.HandleGetAllocation)
}
