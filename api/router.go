// Package api exposes the request/response surface over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"slices"

	"inbox-live/auth"
	"inbox-live/observability"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBytes = 64 * 1024

type RouterConfig struct {
	Log            *slog.Logger
	Handler        *Handler
	Tokens         *auth.TokenManager
	Live           http.Handler // live connection endpoint, mounted on /ws
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := cfg.Handler
	r := chi.NewRouter()

	// First, so that every request is measured
	r.Use(Metrics(cfg.Metrics))

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Logger(cfg.Log))
	r.Use(chimw.Recoverer)

	// An empty list or a wildcard lets any site in, so credentials are only
	// sent back to explicitly listed origins.
	allowCredentials := len(cfg.AllowedOrigins) > 0 && !slices.Contains(cfg.AllowedOrigins, "*")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.Health)
	if cfg.Live != nil {
		r.Handle("/ws", cfg.Live)
	}

	r.Route("/api/users", func(r chi.Router) {
		r.Use(chimw.RequestSize(maxRequestBytes))
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/{id}", h.GetProfile)
	})

	r.Route("/api/messages", func(r chi.Router) {
		r.Use(chimw.RequestSize(maxRequestBytes))
		r.Use(auth.Middleware(cfg.Tokens, h.unauthorized))

		r.With(h.RateLimit).Post("/send/{receiverId}", h.SendMessage)
		r.Get("/conversations", h.GetConversations)
		r.Get("/search", h.Search)
		r.Get("/{peerId}", h.GetHistory)
	})

	return r
}
