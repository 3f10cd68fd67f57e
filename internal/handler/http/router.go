package http

import (
	"context"
	"net/http"
	"time"

	"github.com/KeeperOfTheLights/best-project-backend/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
}

// RouteRegistrar mounts a handler's authenticated routes.
type RouteRegistrar interface {
	RegisterRoutes(router chi.Router)
}

type RouterDeps struct {
	// Users also owns the public registration route.
	Users    *UserHandler
	Handlers []RouteRegistrar

	Verifier    TokenVerifier
	Directory   UserReader
	Metrics     *metrics.Metrics
	RateLimiter *RateLimiter
	Health      map[string]HealthCheck
}

func NewRouter(cfg RouterConfig, deps RouterDeps) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(AccessLog)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)
	if deps.RateLimiter != nil {
		router.Use(deps.RateLimiter.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	router.Get("/health", healthHandler(deps.Health))
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}
	if deps.Users != nil {
		deps.Users.RegisterPublicRoutes(router)
	}

	router.Group(func(r chi.Router) {
		r.Use(Authenticate(deps.Verifier, deps.Directory))
		if deps.Users != nil {
			deps.Users.RegisterRoutes(r)
		}
		for _, h := range deps.Handlers {
			h.RegisterRoutes(r)
		}
	})

	return router
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]string, len(checks))
		code := http.StatusOK
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
				status[name] = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		respondWithJSON(w, code, status)
	}
}
