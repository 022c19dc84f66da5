package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/contexta-qa/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/contexta-qa/internal/api/middlewares"
	"github.com/markdave123-py/contexta-qa/internal/config"
	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/observability/metrics"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Deps are the collaborators the routes delegate to.
type Deps struct {
	Extractor core.TextExtractor
	Answers   handlers.AnswerService
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	docHandler := handlers.NewDocumentHandler(deps.Extractor, m, cfg.MaxUploadMB, cfg.RequestTimeout, logger)
	chatHandler := handlers.NewChatHandler(deps.Answers, cfg.RequestTimeout, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.AccessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// any origin, any method, any header
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handlers.Healthz)
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/upload/document", docHandler.UploadDocument)
		api.Post("/upload/image", docHandler.UploadImage)
		api.Post("/ask", chatHandler.Ask)
		api.Get("/models", chatHandler.ListModels)
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, logger: logger}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
