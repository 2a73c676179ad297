package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/data", func(r chi.Router) {
		r.Get("/", h.HandleGetData)   // Full data set
		r.Post("/", h.HandleSaveData) // Budget, settings and holdings edits
	})
	r.Post("/init", h.HandleInit)

	// Catalogs
	r.Get("/formations", h.HandleGetFormations)
	r.Get("/tickers", h.HandleGetTickers)

	r.Get("/history", h.HandleGetHistory)
	r.Delete("/holdings/{id}", h.HandleDeleteHolding)
}
