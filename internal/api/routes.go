package api

import (
	"github.com/gin-gonic/gin"

	"pagewatch/internal/api/auth"
	v1 "pagewatch/internal/api/v1"
	"pagewatch/internal/api/types"
)

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	// Initialize handlers
	baseHandler := NewHandler(s.engine, s.storage)
	authMiddleware := auth.RequireAuth(s.authHandler.GetTokenManager())

	// Base api router group
	apiGroup := s.router.Group("/api")

	// Base endpoints (no authentication required)
	apiGroup.GET("/ping", baseHandler.Ping)
	apiGroup.GET("/health", baseHandler.Health)

	// Authentication endpoints
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", s.authHandler.Register)
		authGroup.POST("/login", s.authHandler.Login)
		authGroup.GET("/me", authMiddleware, s.authHandler.Me)
	}

	// API v1 routes (protected with authentication)
	v1Group := apiGroup.Group("/v1")
	v1Group.Use(authMiddleware)

	v1.SetupRoutes(v1Group, s.engine, s.storage, s.broker)

	s.router.NoRoute(func(c *gin.Context) {
		types.AbortWithError(c, types.NotFoundError("route"))
	})
}
