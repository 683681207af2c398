package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/markdave123-py/AskNest/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/AskNest/internal/api/middlewares"
	"github.com/markdave123-py/AskNest/internal/config"
)

// Handlers groups the route handlers mounted under /api.
type Handlers struct {
	Documents *handlers.DocumentHandler
	Orgs      *handlers.OrgHandler
	Users     *handlers.UserHandler
	Chat      *handlers.ChatHandler
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *zap.Logger
}

func newVerifier(cfg *config.Config) (*appMiddleware.TokenVerifier, error) {
	v, err := appMiddleware.NewTokenVerifier(cfg.IdpJWTSecret, cfg.IdpPublicKey, cfg.IdpIssuer)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}
	return v, nil
}

// NewRouter builds and wires all routes.
func NewRouter(cfg *config.Config, logger *zap.Logger, verifier *appMiddleware.TokenVerifier, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(appMiddleware.Authenticate(verifier, logger))

		api.Post("/upload", h.Documents.UploadDocument)

		api.Post("/org/create", h.Orgs.Create)
		api.Post("/org/join", h.Orgs.Join)
		api.Get("/org/{id}", h.Orgs.Get)
		api.Get("/org/{id}/ingestions", h.Documents.ListIngestions)

		api.Get("/user", h.Users.Get)
		api.Post("/user", h.Users.Create)

		api.Post("/chat/ask", h.Chat.Ask)
	})

	return r
}

func NewServer(cfg *config.Config, logger *zap.Logger, verifier *appMiddleware.TokenVerifier, h Handlers) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, logger, verifier, h),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logger,
	}
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
