// Package handlers provides HTTP handlers for asset endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
)

// Handler provides HTTP handlers for asset endpoints.
type Handler struct {
	service *assets.Service
	repo    *assets.Repository
	log     zerolog.Logger
}

// NewHandler creates a new assets handler.
func NewHandler(service *assets.Service, repo *assets.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		log:     log.With().Str("handler", "assets").Logger(),
	}
}

// assetView is an asset with its derived metrics attached.
type assetView struct {
	assets.Asset
	Metrics assets.Metrics `json:"metrics"`
}

func toView(a assets.Asset) assetView {
	return assetView{Asset: a, Metrics: a.ComputeMetrics()}
}

// HandleListByAccount handles GET /api/accounts/{accountID}/assets.
func (h *Handler) HandleListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	list, err := h.repo.ListByAccount(accountID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		h.writeError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}

	views := make([]assetView, 0, len(list))
	for _, a := range list {
		views = append(views, toView(a))
	}
	h.writeJSON(w, http.StatusOK, views)
}

// HandleCreate handles POST /api/accounts/{accountID}/assets.
// The new asset's market data is fetched immediately; gateway failures are
// reported as warnings alongside the created record.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var body assets.Asset
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.AccountID = accountID

	created, warnings, err := h.service.AddAsset(body)
	if err != nil {
		h.respondRepoError(w, err, "Failed to create asset")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"asset":    toView(*created),
		"warnings": warnings,
	})
}

// HandleGet handles GET /api/assets/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	asset, err := h.repo.GetByID(id)
	if err != nil {
		h.respondRepoError(w, err, "Failed to get asset")
		return
	}

	h.writeJSON(w, http.StatusOK, toView(*asset))
}

// HandleUpdate handles PUT /api/assets/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var body assets.Asset
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	body.AssetID = id

	updated, err := h.repo.Update(body)
	if err != nil {
		h.respondRepoError(w, err, "Failed to update asset")
		return
	}

	h.writeJSON(w, http.StatusOK, toView(*updated))
}

// HandleDelete handles DELETE /api/assets/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(id); err != nil {
		h.respondRepoError(w, err, "Failed to delete asset")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleRefresh handles POST /api/assets/{id}/refresh.
// Gateway unavailability still yields 200 with updated=false and a warning.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	asset, updated, warnings, err := h.service.RefreshAsset(id)
	if err != nil {
		h.respondRepoError(w, err, "Failed to refresh asset")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":    toView(*asset),
		"updated":  updated,
		"warnings": warnings,
	})
}

// HandleRefreshAll handles POST /api/assets/refresh-all.
func (h *Handler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.RefreshAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Refresh-all sweep failed")
		h.writeError(w, http.StatusInternalServerError, "Failed to refresh assets")
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) assetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid asset id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondRepoError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, assets.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, assets.ErrValidation),
		errors.Is(err, assets.ErrDuplicateTicker),
		errors.Is(err, assets.ErrUnknownAccount):
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
