package models

import (
	"net/url"
	"strconv"
	"strings"
)

const FilterAll = "all"

// Page is the single pagination shape every list endpoint is normalized into.
type Page struct {
	Items       []Record
	CurrentPage int
	TotalPages  int
	Total       int
	// Counted is set when Total came from the envelope rather than the item count.
	Counted bool
}

func (p Page) HasPrev() bool { return p.CurrentPage > 1 }
func (p Page) HasNext() bool { return p.CurrentPage < p.TotalPages }

// ListQuery is the per-page cursor state of a resource list. Page is 1-based.
type ListQuery struct {
	Page    int
	PerPage int
	Filter  string
	Search  string
}

// NewListQuery builds a normalized query.
func NewListQuery(page, perPage int, filter, search string) ListQuery {
	q := ListQuery{Page: page, PerPage: perPage, Filter: filter, Search: strings.TrimSpace(search)}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Filter == "" {
		q.Filter = FilterAll
	}
	return q
}

// Values renders the backend query string. The "all" filter is omitted.
func (q ListQuery) Values(filterParam string) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.Filter != "" && q.Filter != FilterAll {
		if filterParam == "" {
			filterParam = "status"
		}
		v.Set(filterParam, q.Filter)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
