package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/markdave123-py/Docshelf/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Docshelf/internal/api/middlewares"
	"github.com/markdave123-py/Docshelf/internal/config"
	"github.com/markdave123-py/Docshelf/internal/core"
	"github.com/markdave123-py/Docshelf/internal/core/ingestion_engine"
	"github.com/markdave123-py/Docshelf/internal/logger"
	"github.com/markdave123-py/Docshelf/internal/services"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	DB        core.DbClient
	Objects   core.ObjectClient
	Extractor ingestion_engine.Extractor
	Remote    core.RemoteFetcher
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, deps Deps) *Server {
	users := services.NewUserService(deps.DB)
	tokens := services.NewTokenService(cfg.JWTSecret)
	docs := services.NewDocumentService(deps.DB, deps.Objects, logger.WithComponent("documents"))
	ingestor := ingestion_engine.NewDocumentIngestor(
		deps.DB, deps.Objects, deps.Remote, deps.Extractor,
		ingestion_engine.IngestConfig{MaxBytes: cfg.MaxUploadBytes()},
		logger.WithComponent("ingestion"),
	)

	authHandler := handlers.NewAuthHandler(users, tokens)
	docHandler := handlers.NewDocumentHandler(ingestor, docs, cfg.MaxUploadBytes())
	healthHandler := handlers.NewHealthHandler()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(appMiddleware.RequestLogger(logger.WithComponent("http")))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Ingestion outlives the request context, so the upload routes are kept
	// out of REQUEST_TIMEOUT.
	var timeout []func(http.Handler) http.Handler
	if cfg.RequestTimeout > 0 {
		timeout = append(timeout, middleware.Timeout(cfg.RequestTimeout))
	}

	r.With(timeout...).Get("/healthz", healthHandler.Healthz)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(timeout...)
			public.Post("/register", authHandler.Register)
			public.Post("/login", authHandler.Login)
		})

		api.Group(func(docsRouter chi.Router) {
			docsRouter.Use(appMiddleware.OptionalJWT(tokens))
			docsRouter.Post("/upload", docHandler.Upload)
			docsRouter.Post("/upload/drive", docHandler.UploadDrive)

			docsRouter.Group(func(bounded chi.Router) {
				bounded.Use(timeout...)
				bounded.Get("/documents/{user_id:[0-9]+}", docHandler.List)
				bounded.Delete("/documents/{doc_id:[0-9]+}", docHandler.Delete)
				bounded.Get("/documents/view/{doc_id:[0-9]+}", docHandler.View)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{httpServer: httpSrv}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
