// Package handlers provides HTTP handlers for buy/sell simulations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/assets"
	"github.com/EverydayRelics/Personal-Investment-Tracker/internal/modules/simulation"
)

// Handler provides HTTP handlers for simulation endpoints.
type Handler struct {
	service *simulation.Service
	log     zerolog.Logger
}

// NewHandler creates a new simulation handler.
func NewHandler(service *simulation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "simulation").Logger(),
	}
}

// RegisterRoutes registers simulation routes under /assets/{id}/simulate.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets/{id}/simulate", func(r chi.Router) {
		r.Post("/sell", h.HandleSimulateSell)
		r.Post("/buy", h.HandleSimulateBuy)
	})
}

// HandleSimulateSell handles POST /api/assets/{id}/simulate/sell.
func (h *Handler) HandleSimulateSell(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var body struct {
		HypotheticalSalePrice float64 `json:"hypothetical_sale_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SimulateSell(id, body.HypotheticalSalePrice)
	if err != nil {
		h.respondServiceError(w, err, "Sell simulation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSimulateBuy handles POST /api/assets/{id}/simulate/buy.
func (h *Handler) HandleSimulateBuy(w http.ResponseWriter, r *http.Request) {
	id, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var body struct {
		InvestmentAmount float64 `json:"investment_amount"`
		SharesToBuy      float64 `json:"shares_to_buy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.SimulateBuy(id, body.InvestmentAmount, body.SharesToBuy)
	if err != nil {
		h.respondServiceError(w, err, "Buy simulation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) assetID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid asset id")
		return 0, false
	}
	return id, true
}

// respondServiceError maps simulation errors onto HTTP statuses. A missing
// current price is a conflict: the caller must refresh market data first.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, assets.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, simulation.ErrValidation):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, simulation.ErrPriceUnavailable):
		h.writeError(w, http.StatusConflict, err.Error())
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
