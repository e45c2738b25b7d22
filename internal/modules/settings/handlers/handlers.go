// Package handlers provides HTTP handlers for application settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/settings"
)

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	repo *settings.Repository
	log  zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(repo *settings.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGet handles GET /api/settings.
// Returns the effective settings with defaults applied for missing keys.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	goal, err := h.repo.TargetGoalValue()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read target goal")
		h.writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	rate, err := h.repo.USDToCADRate()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read exchange rate")
		h.writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]float64{
		settings.KeyTargetGoalValue: goal,
		settings.KeyUSDToCADRate:    rate,
	})
}

// HandleUpdateGoal handles PUT /api/settings/goal.
func (h *Handler) HandleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TargetGoalValue float64 `json:"target_goal_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if body.TargetGoalValue <= 0 {
		h.writeError(w, http.StatusBadRequest, "Target goal must be a positive number")
		return
	}

	if err := h.repo.SetFloat(settings.KeyTargetGoalValue, body.TargetGoalValue); err != nil {
		h.log.Error().Err(err).Msg("Failed to update target goal")
		h.writeError(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}

	h.log.Info().Float64("target_goal_value", body.TargetGoalValue).Msg("Updated target goal")
	h.writeJSON(w, http.StatusOK, map[string]float64{
		settings.KeyTargetGoalValue: body.TargetGoalValue,
	})
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
