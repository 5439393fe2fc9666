// Package pagination provides the shared page/per_page request shape and the
// response meta block used by every list endpoint.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number  int
	PerPage int
}

// FromRequest reads "page" and "per_page" query parameters. Missing or
// invalid values fall back to defaults; per_page is capped at MaxPerPage.
func FromRequest(r *http.Request) Page {
	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	perPage := DefaultPerPage
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = n
		}
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	return Page{Number: page, PerPage: perPage}
}

// Offset returns the zero-based item offset for SQL LIMIT/OFFSET queries.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Slice returns (start, end) indices for paging an in-memory collection of
// total items. start == end for pages past the end.
func (p Page) Slice(total int) (start, end int) {
	start = p.Offset()
	if start > total {
		start = total
	}
	end = start + p.PerPage
	if end > total {
		end = total
	}
	return start, end
}

// Meta is embedded in paginated list responses.
type Meta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// MetaFor fills the response meta for a page over total items.
func MetaFor(p Page, total int) Meta {
	return Meta{Page: p.Number, PerPage: p.PerPage, Total: total}
}
