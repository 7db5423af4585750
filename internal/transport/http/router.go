package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"trainingtracker/internal/config"
	apierrors "trainingtracker/internal/errors"
	"trainingtracker/internal/infrastructure"
	"trainingtracker/internal/middleware"
)

// RouterDeps collects what the router mounts. Metrics and MetricsHandler
// may be nil.
type RouterDeps struct {
	Runs           RunService
	Health         HealthChecker
	Metrics        *infrastructure.BusinessMetrics
	MetricsHandler http.Handler
	Server         config.ServerConfig
	Logger         *slog.Logger
}

// NewRouter builds the API router. Middleware order: RequestID, RealIP,
// Tracing, StructuredLogger, Recoverer, SecurityHeaders.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Tracing(deps.Metrics))
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	runs := NewRunsHandler(deps.Runs, errorHandler, deps.Server.RunTimeout, logger)
	health := NewHealthHandler(deps.Health, logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/health", health.HealthCheck)

		r.Route("/runs", func(r chi.Router) {
			trigger := http.Handler(http.HandlerFunc(runs.StartRun))
			if rl := deps.Server.RateLimit; rl.Enabled {
				trigger = middleware.NewRateLimiter(rl.RPS, rl.Burst, logger).Handler(trigger)
			}
			r.Method(http.MethodPost, "/", trigger)
			r.Get("/latest", runs.GetLatest)
			r.Get("/latest/{table}", runs.GetLatestTable)
		})
	})

	return r
}
