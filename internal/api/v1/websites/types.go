package websites

import "strings"

// CreateRequest is the payload of POST /api/v1/websites.
type CreateRequest struct {
	Name    string  `json:"name" binding:"required"`
	BaseURL *string `json:"base_url"`
}

// UpdateRequest is the payload of PATCH /api/v1/websites/:id. Omitted fields
// keep their value; an empty base_url clears it.
type UpdateRequest struct {
	Name    *string `json:"name"`
	BaseURL *string `json:"base_url"`
}

// PageRequest is the payload of POST /api/v1/websites/:id/pages.
type PageRequest struct {
	URL string `json:"url" binding:"required"`
}

// normalizeBaseURL trims the URL and maps an empty value to nil.
func normalizeBaseURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
