package platforms

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for platform endpoints.
type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandler creates a new platforms handler.
func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "platforms").Logger(),
	}
}

// RegisterRoutes registers all platform routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/platforms", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
	})
}

type platformRequest struct {
	Name string `json:"name"`
}

// HandleList handles GET /api/platforms.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list platforms")
		h.writeError(w, http.StatusInternalServerError, "Failed to list platforms")
		return
	}
	if platforms == nil {
		platforms = []Platform{}
	}
	h.writeJSON(w, http.StatusOK, platforms)
}

// HandleCreate handles POST /api/platforms.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body platformRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	platform, err := h.repo.Create(body.Name)
	if err != nil {
		h.respondRepoError(w, err, "Failed to create platform")
		return
	}

	h.writeJSON(w, http.StatusCreated, platform)
}

// HandleUpdate handles PUT /api/platforms/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid platform id")
		return
	}

	var body platformRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	platform, err := h.repo.Update(id, body.Name)
	if err != nil {
		h.respondRepoError(w, err, "Failed to update platform")
		return
	}

	h.writeJSON(w, http.StatusOK, platform)
}

// HandleDelete handles DELETE /api/platforms/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid platform id")
		return
	}

	if err := h.repo.Delete(id); err != nil {
		h.respondRepoError(w, err, "Failed to delete platform")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) respondRepoError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrEmptyName):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(fallback)
		h.writeError(w, http.StatusInternalServerError, fallback)
	}
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
