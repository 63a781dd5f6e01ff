package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WanderingAstronomer/Vociferous-sub003/internal/config"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/session"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/storage/sqlite"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/transcribe"
	"github.com/WanderingAstronomer/Vociferous-sub003/internal/websocket"
	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(registry *transcribe.Registry, storage *sqlite.TranscriptStorage, wsServer *websocket.Server, polisher session.Polisher, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(registry, storage, wsServer, polisher, cfg, log),
		middleware: NewMiddleware(log),
		config:     cfg,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Health check
		router.Get("/health", r.handler.GetHealth)

		// Engine kinds
		router.Get("/engines", r.handler.GetEngines)

		// Transcription runs
		router.Post("/runs", r.handler.CreateRun)
		router.Get("/runs", r.handler.ListRuns)
		router.Get("/runs/{id}", r.handler.GetRun)
		router.Post("/runs/{id}/stop", r.handler.StopRun)

		// Stored transcripts
		router.Get("/transcripts", r.handler.GetRecentTranscripts)
		router.Get("/transcripts/{id}", r.handler.GetTranscriptByID)
		router.Get("/transcripts/run/{runID}", r.handler.GetTranscriptByRunID)
		router.Get("/transcripts/time-range", r.handler.GetTranscriptsByTimeRange)

		// WebSocket live feed
		router.Get("/ws", r.handler.HandleWebSocket)
	})

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler())

	return router
}
