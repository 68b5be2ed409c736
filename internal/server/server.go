// Package server provides the main server orchestration for pagewatch.
//
// This package coordinates the startup and shutdown of all core components:
//   - Storage initialization and migration
//   - Monitoring engine startup
//   - HTTP API server management
//   - Graceful shutdown handling
//
// The server follows a structured lifecycle:
//  1. Storage initialization
//  2. Core engine startup
//  3. HTTP API server launch
//  4. Graceful shutdown once the context is cancelled
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pagewatch/internal/api"
	"pagewatch/internal/checks"
	"pagewatch/internal/config"
	"pagewatch/internal/core"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 30 * time.Second

// Server represents the main pagewatch server orchestrator.
//
// It manages the lifecycle of the database storage, the monitoring engine
// and the HTTP API server.
type Server struct {
	// cfg holds the application configuration
	cfg *config.Config
}

// New creates a new server instance with the provided configuration.
//
// The server is not started until Start() is called.
func New(cfg *config.Config) *Server {
	return &Server{
		cfg: cfg,
	}
}

// Start initializes and starts all server components in order and blocks
// until ctx is cancelled or a component fails.
//
// Shutdown order is the reverse of startup: the HTTP server stops accepting
// requests, then the engine finishes in-flight checks, then storage closes.
func (s *Server) Start(ctx context.Context) error {
	// Phase 1: storage, every other component depends on it
	store, err := storage.New(s.cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close storage")
		}
	}()
	log.Info().Str("driver", s.cfg.Storage.Driver).Msg("Storage initialized")

	// Phase 2: monitoring engine
	broker := events.NewBroker()
	checker := checks.NewHTTPChecker(s.cfg.Checks.HTTP)
	engine := core.NewEngine(s.cfg.Scheduler, store, checker, broker)
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	defer engine.Stop()

	// Phase 3: HTTP API
	apiServer := api.NewServer(s.cfg.Server, engine, store, broker)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(apiServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}
