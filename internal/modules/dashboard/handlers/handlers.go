// Package handlers provides the HTTP handler for the dashboard view.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/dashboard"
)

// Handler provides HTTP handlers for dashboard endpoints.
type Handler struct {
	service *dashboard.Service
	log     zerolog.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(service *dashboard.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "dashboard").Logger(),
	}
}

// RegisterRoutes registers the dashboard route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.HandleGetDashboard)
}

// HandleGetDashboard handles GET /api/dashboard.
func (h *Handler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ComputeView()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute dashboard")
		h.writeError(w, http.StatusInternalServerError, "Failed to compute dashboard")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
