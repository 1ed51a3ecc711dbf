package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/arko-chat/hostbridge/internal/handlers"
	"github.com/arko-chat/hostbridge/internal/middleware"
)

func New(h *handlers.Handler, launch *middleware.Launch) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LocalOnly)
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)

	r.Get("/healthz", h.HandleHealth)

	r.Route("/bridge", func(r chi.Router) {
		r.Use(launch.Require)
		r.Get("/ws", h.HandleBridgeWS)

		if h.Legacy() {
			r.Group(func(r chi.Router) {
				r.Use(chimw.NoCache)
				r.Get("/legacy/queue", h.HandleLegacyQueue)
				r.Post("/legacy/deliver", h.HandleLegacyDeliver)
			})
		}
	})

	return r
}
