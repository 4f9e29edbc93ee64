package api

import (
	"net/url"
	"strconv"
)

// PageParams selects one page of a listing.
type PageParams struct {
	Page     int
	PageSize int
}

// Query encodes the params for a list request; zero values are omitted.
func (p PageParams) Query() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	return q
}

// Page is the backend's paginated list payload.
type Page[T any] struct {
	List       []T `json:"list"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Pages returns TotalPages, deriving it from Total and PageSize when the backend omits it.
func (p Page[T]) Pages() int {
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	if p.PageSize <= 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool {
	return p.Page < p.Pages()
}
