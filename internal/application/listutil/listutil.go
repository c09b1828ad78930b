// Package listutil parses list query parameters and pages in-memory rows.
// The record backend returns whole collections, so admin lists filter and
// paginate after the fetch.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is the page size when the request does not pick one.
const DefaultPerPage = 25

// PerPageOptions are the page sizes a request may ask for.
var PerPageOptions = []int{10, 25, 50, 100}

// PageParams is the requested page.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// FilterParams carries the free-text query and exact-match filters.
type FilterParams struct {
	Search  string
	Filters map[string]string
}

// Filter returns the named filter value, or "".
func (f FilterParams) Filter(key string) string {
	return f.Filters[key]
}

// PageInfo describes the page actually served.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// ParsePageParams reads page and per_page.
// POST: Page >= 1 and PerPage is one of PerPageOptions
func ParsePageParams(q url.Values) PageParams {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseFilterParams reads q plus each of keys. Unlisted keys are ignored
// and blank values are dropped.
func ParseFilterParams(q url.Values, keys []string) FilterParams {
	fp := FilterParams{
		Search:  strings.TrimSpace(q.Get("q")),
		Filters: make(map[string]string, len(keys)),
	}
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			fp.Filters[key] = v
		}
	}
	return fp
}

// NewPageInfo clamps page into range for total rows.
// POST: 1 <= Page <= TotalPages and TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       min(max(page, 1), pages),
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset is the index of the first row on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Paginate returns the rows on page p.
// PRE: p.Total == len(items)
func Paginate[T any](items []T, p PageInfo) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

// Matches reports whether query occurs in any field, ignoring case.
// An empty query matches everything.
func Matches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return slices.ContainsFunc(fields, func(f string) bool {
		return strings.Contains(strings.ToLower(f), q)
	})
}
