package dto

// APIResponse is the envelope for every API reply: exactly one of Data or
// Error is set.
type APIResponse struct {
	Data  interface{}  `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// PaginationInfo describes the page window of a list response.
type PaginationInfo struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
}
