package utils

import "strconv"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is the page metadata returned with list responses
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ParsePagination reads page and limit query values. Missing or invalid
// values fall back to the defaults and limit is capped at MaxLimit.
func ParsePagination(pageParam, limitParam string) (page, limit int) {
	page, err := strconv.Atoi(pageParam)
	if err != nil || page < 1 {
		page = DefaultPage
	}
	limit, err = strconv.Atoi(limitParam)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	return page, min(limit, MaxLimit)
}

// NewPagination builds the metadata for one page of total items
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
