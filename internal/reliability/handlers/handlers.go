// Package handlers provides HTTP handlers for database backups.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/satellite/internal/api"
	"github.com/aristath/satellite/internal/reliability"
)

// Handler handles backup HTTP requests
type Handler struct {
	backups *reliability.BackupService
	resp    *api.Responder
	log     zerolog.Logger
}

// NewHandler creates a new backup handler
func NewHandler(backups *reliability.BackupService, resp *api.Responder, log zerolog.Logger) *Handler {
	return &Handler{
		backups: backups,
		resp:    resp,
		log:     log.With().Str("handler", "backups").Logger(),
	}
}

// HandleCreateBackup runs a backup immediately
// POST /api/backups
func (h *Handler) HandleCreateBackup(w http.ResponseWriter, r *http.Request) {
	result, err := h.backups.CreateBackup(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		h.resp.ErrorWithCode(w, r, http.StatusInternalServerError, api.CodeInternal, "Backup failed", err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, result)
}

// HandleListBackups lists local backups, newest first
// GET /api/backups
func (h *Handler) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.ListBackups()
	if err != nil {
		h.resp.ErrorWithCode(w, r, http.StatusInternalServerError, api.CodeInternal, "Failed to list backups", err)
		return
	}
	h.resp.JSON(w, r, http.StatusOK, backups)
}
