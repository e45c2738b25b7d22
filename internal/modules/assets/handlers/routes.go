package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all asset routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts/{accountID}/assets", func(r chi.Router) {
		r.Get("/", h.HandleListByAccount)
		r.Post("/", h.HandleCreate)
	})

	r.Route("/assets", func(r chi.Router) {
		r.Post("/refresh-all", h.HandleRefreshAll)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Post("/refresh", h.HandleRefresh)
		})
	})
}
