package restone

import (
	"net/url"
	"strconv"
)

// Query parameter names driving the collection pipeline.
const (
	ParamField = "field"
	ParamOrder = "order"
	ParamPage  = "page"
	ParamIPP   = "ipp"
)

// Filter is one named narrowing operation over a collection result. Apply receives the
// request's query parameters; a filter whose parameter is absent must return the set
// unchanged. Filters run strictly in declaration order.
type Filter struct {
	Name  string
	Apply func(q url.Values, s Set) Set
}

// ParamFilter builds the common kind of filter: when 'param' is present in the query,
// keep the resources for which 'keep' holds given the parameter's first value.
func ParamFilter(name, param string, keep func(val string, r Resource) bool) Filter {
	return Filter{Name: name, Apply: func(q url.Values, s Set) Set {
		val := q.Get(param)
		if val == "" {
			return s
		}

		return s.Filter(func(r Resource) bool { return keep(val, r) })
	}}
}

// LessFunc orders two resources, see [Set.OrderBy].
type LessFunc func(a, b Resource) bool

// applyFilters runs the declared filters in order, then the ordering selected by the
// "order" parameter. Unknown or absent order values are a no-op.
func applyFilters(q url.Values, s Set, filters []Filter, orders map[string]LessFunc) Set {
	for _, f := range filters {
		s = f.Apply(q, s)
	}

	if less, ok := orders[q.Get(ParamOrder)]; ok {
		s = s.OrderBy(less)
	}

	return s
}

// Pagination is the page metadata reported in the response envelope. Totals are
// pointers because computing them can be disabled for cost reasons; they are then
// simply omitted.
type Pagination struct {
	Page         int  `json:"page"`
	ItemsPerPage int  `json:"items_per_page"`
	TotalPages   *int `json:"total_pages,omitempty"`
	TotalItems   *int `json:"total_items,omitempty"`
}

// paginate slices 's' according to the "page" and "ipp" query parameters. Absence of
// "page" skips paging entirely. Pagination never fails: a non-numeric or out-of-range
// page returns the set unpaginated with no metadata, and a missing or non-numeric "ipp"
// falls back to the configured default. Totals are computed only when 'countTotals'.
func paginate(q url.Values, s Set, defaultIPP int, countTotals bool) (Set, *Pagination) {
	pageVal := q.Get(ParamPage)
	if pageVal == "" {
		return s, nil
	}

	page, err := strconv.Atoi(pageVal)
	if err != nil || page < 1 {
		return s, nil
	}

	ipp, err := strconv.Atoi(q.Get(ParamIPP))
	if err != nil || ipp < 1 {
		ipp = defaultIPP
	}

	// out-of-range detection works on the sliced window so the full set is never counted
	// unless totals are asked for.
	offset := (page - 1) * ipp
	window := s.Slice(offset, ipp)
	if page > 1 && window.Count() == 0 {
		return s, nil
	}

	meta := &Pagination{Page: page, ItemsPerPage: ipp}
	if countTotals {
		total := s.Count()
		pages := (total + ipp - 1) / ipp
		meta.TotalPages = &pages
		meta.TotalItems = &total
	}

	return window, meta
}
