// Package websites implements HTTP handlers for website management and the
// pages and check history nested under a website.
//
// Every handler is scoped to the authenticated user: websites owned by
// someone else answer 404, exactly like missing ones.
package websites

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pagewatch/internal/api/auth"
	"pagewatch/internal/api/types"
	"pagewatch/internal/core"
	"pagewatch/internal/storage"
)

// Handler manages all website-related HTTP endpoints.
type Handler struct {
	storage *storage.Storage
	engine  *core.Engine
}

// NewHandler creates a new website handler instance.
//
// Parameters:
//   - storage: Database abstraction layer for CRUD operations
//   - engine: Monitoring engine used to check newly created pages
func NewHandler(storage *storage.Storage, engine *core.Engine) *Handler {
	return &Handler{
		storage: storage,
		engine:  engine,
	}
}

// List handles GET /api/v1/websites
//
// Returns the caller's websites with their pages and aggregates.
func (h *Handler) List(c *gin.Context) {
	websites, err := h.storage.ListWebsites(c.Request.Context(), auth.UserID(c))
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(websites))
}

// Create handles POST /api/v1/websites
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	website := &storage.Website{
		UserID:  auth.UserID(c),
		Name:    strings.TrimSpace(req.Name),
		BaseURL: normalizeBaseURL(req.BaseURL),
	}
	if err := h.storage.CreateWebsite(c.Request.Context(), website); err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	log.Info().
		Uint("website_id", website.ID).
		Uint("user_id", website.UserID).
		Msg("Website created")

	h.respondWebsite(c, http.StatusCreated, website.ID)
}

// Get handles GET /api/v1/websites/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return
	}

	h.respondWebsite(c, http.StatusOK, id)
}

// Update handles PATCH /api/v1/websites/:id
func (h *Handler) Update(c *gin.Context) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	current, err := h.storage.GetWebsite(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	website := current.Website
	if req.Name != nil {
		website.Name = strings.TrimSpace(*req.Name)
	}
	if req.BaseURL != nil {
		website.BaseURL = normalizeBaseURL(req.BaseURL)
	}

	if err := h.storage.UpdateWebsite(c.Request.Context(), &website); err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	h.respondWebsite(c, http.StatusOK, id)
}

// Delete handles DELETE /api/v1/websites/:id
//
// Pages of the website and their check history are removed with it.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.storage.DeleteWebsite(c.Request.Context(), auth.UserID(c), id); err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	log.Info().Uint("website_id", id).Msg("Website deleted")
	c.JSON(http.StatusOK, types.MessageResponse("Website deleted successfully"))
}

// Pages handles GET /api/v1/websites/:id/pages
func (h *Handler) Pages(c *gin.Context) {
	website, ok := h.ownedWebsite(c)
	if !ok {
		return
	}

	pages, err := h.storage.ListPages(c.Request.Context(), website.ID)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "page"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse(pages))
}

// CreatePage handles POST /api/v1/websites/:id/pages
//
// The new page is queued for an immediate check. A full queue does not fail
// the request; the page is picked up by the next cycle.
func (h *Handler) CreatePage(c *gin.Context) {
	website, ok := h.ownedWebsite(c)
	if !ok {
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	page := &storage.Page{
		WebsiteID: website.ID,
		URL:       strings.TrimSpace(req.URL),
	}
	if err := h.storage.CreatePage(c.Request.Context(), page); err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}

	if err := h.engine.EnqueueCheck(page.ID); err != nil {
		log.Warn().
			Err(err).
			Uint("page_id", page.ID).
			Msg("Failed to queue initial page check")
	}

	c.JSON(http.StatusCreated, types.SuccessResponse(page))
}

// Checks handles GET /api/v1/websites/:id/checks
//
// Returns the check history of all pages of the website, newest first.
func (h *Handler) Checks(c *gin.Context) {
	website, ok := h.ownedWebsite(c)
	if !ok {
		return
	}

	var pagination types.PaginationRequest
	if err := c.ShouldBindQuery(&pagination); err != nil {
		types.AbortWithError(c, types.ValidationError(err.Error()))
		return
	}

	checks, total, err := h.storage.ListWebsiteChecks(c.Request.Context(), website.ID, pagination.PageSize, pagination.Offset())
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "check"))
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponseWithPagination(checks, pagination.Paginate(total)))
}

func (h *Handler) ownedWebsite(c *gin.Context) (*storage.WebsiteWithStats, bool) {
	id, ok := types.ParseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	website, err := h.storage.GetWebsite(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return nil, false
	}
	return website, true
}

func (h *Handler) respondWebsite(c *gin.Context, status int, id uint) {
	website, err := h.storage.GetWebsite(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		types.AbortWithError(c, types.StorageError(err, "website"))
		return
	}
	c.JSON(status, types.SuccessResponse(website))
}
