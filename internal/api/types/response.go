// internal/api/types/response.go
package types

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PaginatedResponse wraps one page of a list endpoint.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewPaginatedResponse builds a page, never encoding a nil slice as null.
func NewPaginatedResponse[T any](data []T, total int64, limit, offset int) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{Data: data, TotalCount: total, Limit: limit, Offset: offset}
}
