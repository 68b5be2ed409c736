// Package pages implements HTTP handlers for single monitored pages:
// reading, editing and deleting them, queueing on-demand checks and
// browsing their check history.
package pages

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/api/auth"
	"pagewatch/internal/api/types"
	"pagewatch/internal/core"
	"pagewatch/internal/storage"
)

// recentChecksLimit bounds the checks embedded in GET /pages/:id.
const recentChecksLimit = 50

// Handler manages all page-related HTTP endpoints.
type Handler struct {
	storage *storage.Storage
	engine  *core.Engine
}

// UpdateRequest is the payload of PATCH /api/v1/pages/:id.
type UpdateRequest struct {
	URL string `json:"url" binding:"required"`
}

// NewHandler creates a new page handler instance.
func NewHandler(storage *storage.Storage, engine *core.Engine) *Handler {
	return &Handler{
		storage: storage,
		engine:  engine,
	}
}

// Get handles GET /api/v1/pages/:id
//
// Returns the page with its latest checks, newest first.
func (h *Handler) Get(c *gin.Context) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return
	}

	page, err := h.storage.GetPageWithChecks(c.Request.Context(), auth.UserID(c), id, recentChecksLimit)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(page))
}

// Update handles PATCH /api/v1/pages/:id
//
// Only the URL can change. The cached status stays until the next check.
func (h *Handler) Update(c *gin.Context) {
	page, ok := h.ownedPage(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	page.URL = strings.TrimSpace(req.URL)
	if err := h.storage.UpdatePageURL(c.Request.Context(), page); err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return
	}

	updated, err := h.storage.GetPageForUser(c.Request.Context(), auth.UserID(c), page.ID)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(updated))
}

// Delete handles DELETE /api/v1/pages/:id
//
// A check already running for the page is not interrupted; its result is
// discarded when it cannot be recorded.
func (h *Handler) Delete(c *gin.Context) {
	page, ok := h.ownedPage(c)
	if !ok {
		return
	}

	if err := h.storage.DeletePage(c.Request.Context(), page.ID); err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return
	}

	log.Info().Uint("page_id", page.ID).Msg("Page deleted")
	c.JSON(http.StatusOK, types.MessageResponse("Page deleted successfully"))
}

// Check handles POST /api/v1/pages/:id/check
//
// Queues one check of the page and returns immediately. Repeated requests
// queue repeated checks.
//
// Returns:
//   - 202 Accepted once the check is queued
//   - 404 Not Found for unknown or foreign pages
//   - 503 Service Unavailable when the queue is full or the engine is stopped
func (h *Handler) Check(c *gin.Context) {
	page, ok := h.ownedPage(c)
	if !ok {
		return
	}

	if err := h.engine.EnqueueCheck(page.ID); err != nil {
		switch {
		case errors.Is(err, core.ErrQueueFull):
			types.AbortWithError(c, types.UnavailableError("check queue is full, try again later"))
		case errors.Is(err, core.ErrEngineStopped), errors.Is(err, core.ErrQueueClosed):
			types.AbortWithError(c, types.UnavailableError("monitoring engine is not running"))
		default:
			types.AbortWithError(c, types.InternalError("failed to queue check", err))
		}
		return
	}

	log.Debug().Uint("page_id", page.ID).Msg("On-demand check queued")
	c.JSON(http.StatusAccepted, types.MessageResponse("Uptime check queued successfully"))
}

// Checks handles GET /api/v1/pages/:id/checks
//
// Query parameters:
//   - page (default: 1, min: 1)
//   - page_size (default: 20, max: 100)
func (h *Handler) Checks(c *gin.Context) {
	page, ok := h.ownedPage(c)
	if !ok {
		return
	}

	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	checks, total, err := h.storage.ListPageChecks(c.Request.Context(), page.ID, pagination.PageSize, pagination.Offset())
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "check"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(checks, pagination.Paginate(total)))
}

func (h *Handler) ownedPage(c *gin.Context) (*storage.Page, bool) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	page, err := h.storage.GetPageForUser(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return nil, false
	}
	return page, true
}
