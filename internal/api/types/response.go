// internal/api/types/response.go
package types

// CursorPage defines a generic structure for cursor-paginated API responses.
// NextCursor is empty when the listing is exhausted.
type CursorPage[T any] struct {
	Data       []T    `json:"data"`
	Limit      int    `json:"limit"`
	NextCursor string `json:"next_cursor,omitempty"`
}
