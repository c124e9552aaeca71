package shared

import "math"

// DefaultPerPage matches the catalog table page size.
const DefaultPerPage = 50

// MaxPerPage caps client supplied page sizes.
const MaxPerPage = 500

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata. Pages past the end are clamped
// to the last page, or to the first when there is nothing to list.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	if total < 0 {
		total = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	switch {
	case page <= 0 || totalPages == 0:
		page = 1
	case page > totalPages:
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Bounds returns the half-open slice window [start, end) for the current page.
func (p Pagination) Bounds() (int, int) {
	start := 0
	switch {
	case p.Page <= 1 || p.PerPage <= 0:
	case p.Page-1 > p.Total/p.PerPage:
		start = p.Total
	default:
		start = (p.Page - 1) * p.PerPage
	}
	if start > p.Total {
		start = p.Total
	}
	end := start + p.PerPage
	if end > p.Total || end < start {
		end = p.Total
	}
	return start, end
}
