package httpserver

import (
	"net/http"
	"time"

	"cras-cadastro/internal/config"
	"cras-cadastro/internal/transport/httpserver/handler"
	"cras-cadastro/internal/transport/httpserver/middleware"
	"cras-cadastro/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Handlers *handler.Handlers
	// Notices serves the websocket notice stream. Optional.
	Notices http.Handler
	// Metrics is mounted at /metrics. Optional.
	Metrics  http.Handler
	Observer middleware.RequestObserver
}

func NewRouter(cfg config.Config, deps RouterDeps, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if deps.Observer != nil {
		r.Use(middleware.NewRequestMetrics(deps.Observer))
	}
	r.Use(middleware.NewCORS(cfg.CORSOrigins))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	handlers := deps.Handlers
	auth := middleware.NewTechnicianAuth(cfg.Auth, log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Common.Health)

		if deps.Notices != nil {
			// long-lived, so outside the request timeout
			r.With(auth.Middleware).Method(http.MethodGet, "/notices/ws", deps.Notices)
		}

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))
			r.Use(auth.Middleware)

			r.Get("/families", handlers.Families.ListFamilies)
			r.Post("/families/lookup", handlers.Families.Lookup)
			r.Post("/families/match", handlers.Families.Match)
			r.Get("/families/{id}", handlers.Families.GetFamily)
			r.Delete("/families/{id}", handlers.Families.DeleteFamily)
			r.Post("/families/{id}/cras-transfer", handlers.Families.TransferToCras)

			r.Post("/sessions", handlers.Sessions.OpenSession)
			r.Get("/sessions/{sid}", handlers.Sessions.GetSession)
			r.Patch("/sessions/{sid}", handlers.Sessions.UpdateSession)
			r.Delete("/sessions/{sid}", handlers.Sessions.CloseSession)
			r.Post("/sessions/{sid}/members", handlers.Sessions.AddMember)
			r.Patch("/sessions/{sid}/members/{index}", handlers.Sessions.UpdateMember)
			r.Delete("/sessions/{sid}/members/{index}", handlers.Sessions.RemoveMember)
			r.Post("/sessions/{sid}/members/{index}/responsible", handlers.Sessions.SetResponsible)
			r.Post("/sessions/{sid}/members/{index}/deactivate", handlers.Sessions.DeactivateMember)
			r.Post("/sessions/{sid}/members/{index}/reactivate", handlers.Sessions.ReactivateMember)
			r.Post("/sessions/{sid}/confirm", handlers.Sessions.Confirm)
			r.Post("/sessions/{sid}/cancel", handlers.Sessions.Cancel)
			r.Post("/sessions/{sid}/save", handlers.Sessions.Save)
		})
	})

	return r
}
