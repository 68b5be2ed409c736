package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pagewatch/internal/core"
	"pagewatch/internal/storage"
)

// Handler manages public endpoints.
//
// It provides essential system-level information,
// making it suitable for health checks, liveness probes, and basic diagnostics.
type Handler struct {
	engine    *core.Engine
	storage   *storage.Storage
	startTime time.Time
}

// NewHandler initializes a new public API handler.
//
// Parameters:
//   - engine: Core monitoring engine (maybe nil in test environments)
//   - storage: Database storage layer (maybe nil in test environments)
func NewHandler(engine *core.Engine, storage *storage.Storage) *Handler {
	return &Handler{
		engine:    engine,
		storage:   storage,
		startTime: time.Now(),
	}
}

// Ping handles GET /ping
//
// A lightweight endpoint for basic connectivity verification.
//
// Response:
//   - 200 OK with {"message": "pong"}
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Health handles GET /health
//
// Reports database connectivity, engine state and queue depth. Overall status
// is "healthy" only if both components are healthy; otherwise "degraded".
//
// Response:
//   - 200 OK with detailed health report
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus, dbResponseTime := h.checkDatabaseHealth(ctx)
	engineStatus, queueDepth := h.checkEngineHealth()

	overallStatus := "healthy"
	if dbStatus != "healthy" || engineStatus != "healthy" {
		overallStatus = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"components": gin.H{
			"database": gin.H{
				"status":           dbStatus,
				"response_time_ms": dbResponseTime,
			},
			"engine": gin.H{
				"status":      engineStatus,
				"queue_depth": queueDepth,
			},
		},
	})
}

// checkDatabaseHealth pings the database and measures the round trip.
func (h *Handler) checkDatabaseHealth(ctx context.Context) (string, int64) {
	if h.storage == nil {
		return "unhealthy", 0
	}

	start := time.Now()
	err := h.storage.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()
	if err != nil {
		return "unhealthy", responseTime
	}

	return "healthy", responseTime
}

// checkEngineHealth reports whether the engine runs and how many checks wait
// for a worker.
func (h *Handler) checkEngineHealth() (string, int) {
	if h.engine == nil || !h.engine.IsRunning() {
		return "unhealthy", 0
	}
	return "healthy", h.engine.QueueDepth()
}
