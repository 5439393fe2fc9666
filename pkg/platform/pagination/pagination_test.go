package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		page    int
		perPage int
	}{
		{"defaults", "", 1, 20},
		{"explicit", "page=3&per_page=50", 3, 50},
		{"capped", "per_page=500", 1, 100},
		{"zero page falls back", "page=0", 1, 20},
		{"negative falls back", "page=-2&per_page=-5", 1, 20},
		{"garbage falls back", "page=abc&per_page=xyz", 1, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tc.query, nil)
			p := FromRequest(r)
			assert.Equal(t, tc.page, p.Number)
			assert.Equal(t, tc.perPage, p.PerPage)
		})
	}
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, PerPage: 20}.Offset())
	assert.Equal(t, 40, Page{Number: 3, PerPage: 20}.Offset())
}

func TestPage_Slice(t *testing.T) {
	cases := []struct {
		name       string
		page       Page
		total      int
		start, end int
	}{
		{"first page", Page{Number: 1, PerPage: 3}, 10, 0, 3},
		{"middle page", Page{Number: 2, PerPage: 3}, 10, 3, 6},
		{"partial last page", Page{Number: 4, PerPage: 3}, 10, 9, 10},
		{"past the end", Page{Number: 5, PerPage: 3}, 10, 10, 10},
		{"empty collection", Page{Number: 1, PerPage: 3}, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := tc.page.Slice(tc.total)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestMetaFor(t *testing.T) {
	meta := MetaFor(Page{Number: 2, PerPage: 20}, 57)
	assert.Equal(t, Meta{Page: 2, PerPage: 20, Total: 57}, meta)
}
