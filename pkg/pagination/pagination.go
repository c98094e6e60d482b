package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Skip returns how many records precede the requested page.
func (p Params) Skip() int {
	return (p.Page - 1) * p.Limit
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: DefaultPage, Limit: DefaultLimit}
}

// FromRequest reads page and limit from the query string. Missing or
// non-positive values fall back to the defaults; limit is capped at MaxLimit.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, MaxLimit)
	}

	return p
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Links describes the pages adjacent to the current one. A nil field means
// there is no such page.
type Links struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// NewLinks computes next/prev references for params given the total number
// of matching records.
func NewLinks(params Params, total int64) Links {
	var links Links

	if int64(params.Page*params.Limit) < total {
		links.Next = &PageRef{Page: params.Page + 1, Limit: params.Limit}
	}

	if params.Skip() > 0 {
		links.Prev = &PageRef{Page: params.Page - 1, Limit: params.Limit}
	}

	return links
}
