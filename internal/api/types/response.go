package types

// PaginationResponse represents pagination metadata in API responses
type PaginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Response represents the standard API response wrapper
type Response struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Data       any                 `json:"data,omitempty"`
	Error      *Error              `json:"error,omitempty"`
	Pagination *PaginationResponse `json:"pagination,omitempty"`
}

// SuccessResponse creates a successful API response
func SuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// SuccessResponseWithPagination creates a successful API response with pagination
func SuccessResponseWithPagination(data any, pagination *PaginationResponse) Response {
	return Response{
		Success:    true,
		Data:       data,
		Pagination: pagination,
	}
}

// MessageResponse creates a successful API response carrying only a message
func MessageResponse(message string) Response {
	return Response{
		Success: true,
		Message: message,
	}
}
