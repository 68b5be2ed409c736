// Package auth implements user registration, login and bearer token
// authentication for the API.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"pagewatch/internal/api/types"
	"pagewatch/internal/storage"
)

// Handler handles authentication-related HTTP requests
type Handler struct {
	storage      *storage.Storage
	tokenManager *TokenManager
}

// NewHandler creates a new authentication handler
func NewHandler(storage *storage.Storage, jwtSecret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{
		storage:      storage,
		tokenManager: NewTokenManager(jwtSecret, tokenTTL),
	}
}

// GetTokenManager returns the token manager instance for use by middleware
func (h *Handler) GetTokenManager() *TokenManager {
	return h.tokenManager
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Name     string `json:"name" binding:"required,max=255"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response payload
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *storage.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	if err := storage.ValidatePassword(req.Password); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to hash password", err))
		return
	}

	user := &storage.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := h.storage.CreateUser(c.Request.Context(), user); err != nil {
		types.AbortWithError(c, types.StorageError(err, "user"))
		return
	}

	log.Info().Uint("user_id", user.ID).Msg("User registered")
	c.JSON(http.StatusCreated, types.SuccessResponse(user))
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	user, err := h.storage.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			types.AbortWithError(c, types.AuthenticationError("invalid credentials"))
			return
		}
		types.AbortWithError(c, types.StorageError(err, "user"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		types.AbortWithError(c, types.AuthenticationError("invalid credentials"))
		return
	}

	token, expiresAt, err := h.tokenManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		types.AbortWithError(c, types.InternalError("failed to generate token", err))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}))
}

// Me returns current user information
func (h *Handler) Me(c *gin.Context) {
	user, err := h.storage.GetUser(c.Request.Context(), UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			types.AbortWithError(c, types.AuthenticationError("user no longer exists"))
			return
		}
		types.AbortWithError(c, types.StorageError(err, "user"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(user))
}
