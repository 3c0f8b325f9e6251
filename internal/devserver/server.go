// Package devserver is an in-memory implementation of the interaction
// backend, used for local development and end-to-end tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"mediahub/internal/config"
	"mediahub/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// Server manages the dev backend's HTTP API
type Server struct {
	router         *gin.Engine
	cfg            config.DevServerConfig
	store          *memoryStore
	authSvc        *authService
	interactionSvc *interactionService
	commentSvc     *commentService
	limiter        *userLimiter
	log            *logrus.Entry
	bcryptCost     int
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for server lifecycle messages
func WithLogger(l *logrus.Entry) Option {
	return func(s *Server) { s.log = l }
}

// WithClock replaces the time source used for token issue and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.store.now = now }
}

// WithBcryptCost sets the password hashing cost; tests use bcrypt.MinCost
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.bcryptCost = cost }
}

// New builds a server and creates the configured users
func New(cfg config.DevServerConfig, opts ...Option) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("dev server: jwt secret is required")
	}
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 15 * time.Minute
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:     gin.New(),
		cfg:        cfg,
		store:      newMemoryStore(),
		log:        logger.Component("devserver"),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.authSvc = newAuthService(s.store, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry, cfg.RefreshWindow, s.bcryptCost)
	s.interactionSvc = newInteractionService(s.store)
	s.commentSvc = newCommentService(s.store)
	if cfg.RequestsPerSecond > 0 {
		s.limiter = newUserLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	usernames := make([]string, 0, len(cfg.Users))
	for name := range cfg.Users {
		usernames = append(usernames, name)
	}
	sort.Strings(usernames)
	for _, name := range usernames {
		if _, err := s.authSvc.CreateUser(context.Background(), name, cfg.Users[name]); err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", name, err)
		}
	}

	s.router.Use(requestIDMiddleware())
	s.router.Use(requestLogger())
	s.router.Use(recovery())
	s.router.Use(corsMiddleware())
	s.setupRoutes()
	return s, nil
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	limit := rateLimitMiddleware(s.limiter)

	v1 := s.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", s.login)
			auth.POST("/refresh", s.refresh)
		}

		public := v1.Group("", OptionalAuthMiddleware(s.authSvc), limit)
		{
			public.GET("/interactions/:type/:id/metadata", s.getMetadata)
			public.POST("/interactions/:type/metadata", s.getBatchMetadata)
			public.GET("/comments/:id", s.listComments)
		}

		protected := v1.Group("", AuthMiddleware(s.authSvc), limit)
		{
			protected.POST("/interactions/:type/:id/like", s.toggleLike)
			protected.POST("/interactions/:type/:id/save", s.toggleSave)
			protected.POST("/interactions/:type/:id/share", s.share)
			protected.POST("/interactions/:type/:id/view", s.view)
			protected.GET("/users/me/saved", s.savedContent)
			protected.POST("/comments/:id", s.createComment)
			protected.POST("/comments/:id/like", s.likeComment)
		}
	}
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Interactions exposes the interaction service, e.g. to seed demo counters
func (s *Server) Interactions() InteractionService {
	return s.interactionSvc
}

// Auth exposes the auth service
func (s *Server) Auth() AuthService {
	return s.authSvc
}

// Run serves on the configured address until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("dev server listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server failed: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dev server shutdown: %w", err)
	}
	return nil
}

// healthCheck returns server health status
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   s.store.now().Format(time.RFC3339),
	})
}
