// Package server wires the application together: database, services,
// handlers, middleware, and routes. main.go stays minimal; everything that
// decides how the pieces connect lives here, in one composition root.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/collabcampus/internal/auth"
	"github.com/sakif/collabcampus/internal/handler"
	"github.com/sakif/collabcampus/internal/middleware"
	sqliteRepo "github.com/sakif/collabcampus/internal/repository/sqlite"
	"github.com/sakif/collabcampus/internal/service"
	"github.com/sakif/collabcampus/internal/storage"
	miniostore "github.com/sakif/collabcampus/internal/storage/minio"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// GitHub OAuth. All three empty disables GitHub sign-in; the routes
	// still exist but report it as not configured.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// MinIO blob storage for avatars. Empty Endpoint disables avatar
	// uploads; profile updates still work.
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool
	MinioPublicBaseURL string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer receives interfaces, not concretions: services get the
// repository interfaces (all implemented by the one *sqlite.DB), handlers
// get services, and the router gets handlers.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured, GitHub sign-in disabled")
	}

	var avatars storage.BlobStore
	if s.config.MinioEndpoint != "" {
		store, err := miniostore.New(context.Background(), miniostore.Config{
			Endpoint:      s.config.MinioEndpoint,
			AccessKey:     s.config.MinioAccessKey,
			SecretKey:     s.config.MinioSecretKey,
			Bucket:        s.config.MinioBucket,
			UseSSL:        s.config.MinioUseSSL,
			PublicBaseURL: s.config.MinioPublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("connecting to blob storage: %w", err)
		}
		avatars = store
	} else {
		s.logger.Warn("blob storage not configured, avatar uploads disabled")
	}

	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	userService := service.NewUserService(s.db, avatars, s.logger)
	collabService := service.NewCollaborationService(s.db, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	postHandler := handler.NewHelpPostHandler(collabService, s.logger)
	requestHandler := handler.NewRequestHandler(collabService, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	// Browser OAuth flow lives outside /api: GitHub redirects here.
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.HandleSignup)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// The single-post view is the one public read.
		r.Get("/help-posts/{id}", postHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Patch("/users/me", userHandler.HandleUpdateMe)

			r.Post("/help-posts", postHandler.HandleCreate)
			r.Get("/help-posts/feed", postHandler.HandleFeed)
			r.Get("/help-posts/my/open", postHandler.HandleMyOpen)
			r.Get("/help-posts/my/closed", postHandler.HandleMyClosed)
			r.Get("/help-posts/my/contributions", postHandler.HandleMyContributions)
			r.Patch("/help-posts/{id}", postHandler.HandleUpdate)
			r.Patch("/help-posts/{id}/close", postHandler.HandleClose)
			r.Delete("/help-posts/{id}", postHandler.HandleDelete)

			r.Post("/requests/{helpPostID}", requestHandler.HandleCreate)
			r.Get("/requests/help-post/{helpPostID}", requestHandler.HandleListForPost)
			r.Patch("/requests/{requestID}/accept", requestHandler.HandleAccept)
			r.Patch("/requests/{requestID}/reject", requestHandler.HandleReject)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
