// Package shared holds list filtering helpers common to master data packages.
package shared

import (
	"net/url"
	"strconv"
	"strings"
)

// ListFilters captures the query parameters accepted by master data listings.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// ParseListFilters reads pagination, search and sort parameters from a query
// string, clamping page and limit to sane bounds.
func ParseListFilters(q url.Values) ListFilters {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  strings.TrimSpace(q.Get("search")),
		SortBy:  strings.TrimSpace(q.Get("sort_by")),
		SortDir: strings.ToLower(strings.TrimSpace(q.Get("sort_dir"))),
	}
}

// Offset computes the row offset for the current page.
func (f ListFilters) Offset() int {
	offset := (f.Page - 1) * f.Limit
	if offset < 0 {
		return 0
	}
	return offset
}

// SortOrder renders a safe ORDER BY fragment from a whitelist of columns.
func SortOrder(sortBy, sortDir, fallback string, allowed map[string]string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	if col, ok := allowed[sortBy]; ok {
		return col + " " + dir
	}
	return fallback + " " + dir
}
