package types

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// PaginationRequest represents pagination parameters in requests
type PaginationRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

// Offset returns the number of rows to skip
func (p PaginationRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Paginate builds the pagination metadata for total rows
func (p PaginationRequest) Paginate(total int64) *PaginationResponse {
	return &PaginationResponse{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: int((total + int64(p.PageSize) - 1) / int64(p.PageSize)),
	}
}

// ParseIDParam reads a positive numeric path parameter. On failure it aborts
// the request with a validation error and returns false.
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		AbortWithError(c, ValidationError("invalid "+name+" parameter"))
		return 0, false
	}
	return uint(id), true
}
