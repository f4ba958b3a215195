package models

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ListOptions is limit/offset pagination shared by every listing.
type ListOptions struct {
	Limit  int64
	Offset int64
}

// Page is one page of a listing plus the total number of matches.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}
