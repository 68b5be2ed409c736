// Package api provides the HTTP API of pagewatch.
// This package implements a RESTful API using the Gin framework
//
// Example usage:
//
//	server := api.NewServer(cfg.Server, engine, store, broker)
//	err := server.Start()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/api/auth"
	"pagewatch/internal/config"
	"pagewatch/internal/core"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

// requestTimeout bounds every non-websocket request.
const requestTimeout = 30 * time.Second

// Server represents the HTTP API server.
type Server struct {
	config      config.ServerConfig
	engine      *core.Engine
	storage     *storage.Storage
	broker      *events.Broker
	router      *gin.Engine
	server      *http.Server
	authHandler *auth.Handler
}

// NewServer creates a new HTTP API server instance.
//
// Parameters:
//   - cfg: Server configuration containing address, timeout and JWT settings
//   - engine: Core monitoring engine instance
//   - storage: Storage instance for database operations
//   - broker: Live event broker feeding the websocket endpoint
//
// Returns:
//   - *Server: Initialized server instance
func NewServer(cfg config.ServerConfig, engine *core.Engine, storage *storage.Storage, broker *events.Broker) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:      cfg,
		engine:      engine,
		storage:     storage,
		broker:      broker,
		router:      gin.New(),
		authHandler: auth.NewHandler(storage, []byte(cfg.JWT.Secret), cfg.JWT.TTL),
	}

	// Setup middleware and routes
	server.setupMiddleware()
	server.setupRoutes()

	server.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it is shut down.
//
// Returns:
//   - error: Any error that occurred while serving; nil after Shutdown
func (s *Server) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// setupMiddleware configures middleware for the Gin router. The logger and
// error handler wrap every later middleware so aborted requests are rendered.
func (s *Server) setupMiddleware() {
	// Request ID middleware (should be first)
	s.router.Use(RequestID())

	// Custom panic recovery middleware
	s.router.Use(PanicRecovery())

	// Custom logger middleware
	s.router.Use(LoggerMiddleware())

	// Error handling middleware
	s.router.Use(ErrorHandler())

	// Request timeout middleware
	s.router.Use(TimeoutMiddleware(requestTimeout))

	// Security headers
	s.router.Use(SecurityHeaders())

	// Content type validation
	s.router.Use(ContentType())
}
