package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Route("/api/sync", func(r chi.Router) {
		r.Get("/metadata", h.getSyncMetadata)
		r.Post("/run", h.runFullSync)
		r.Put("/enabled", h.setSyncEnabled)
		r.Get("/conflicts", h.getAllConflicts)
		r.Get("/dead-letters", h.getDeadLetters)
	})

	return router
}
