package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers backup routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/backups", func(r chi.Router) {
		r.Get("/", h.HandleListBackups)
		r.Post("/", h.HandleCreateBackup)
	})
}
