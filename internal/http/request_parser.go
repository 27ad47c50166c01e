package http

import (
	"net/url"
	"strconv"
	"strings"

	"salesdash/internal/core"
)

// ListParams holds parsed listing parameters from a request query string.
type ListParams struct {
	Month   int
	Page    int
	PerPage int
	Search  string
}

// ParseMonth extracts the required month parameter. A missing or
// out-of-range value is rejected rather than defaulted: every report is
// month-scoped and silently picking a month would hide caller bugs.
func ParseMonth(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return 0, core.ErrInvalidMonth
	}
	m, err := strconv.Atoi(v)
	if err != nil || m < 1 || m > 12 {
		return 0, core.ErrInvalidMonth
	}
	return m, nil
}

// ParseListParams extracts month, paging and search values. Paging values
// that are absent or malformed fall back to the first page of ten.
func ParseListParams(query url.Values) (ListParams, error) {
	month, err := ParseMonth(query)
	if err != nil {
		return ListParams{}, err
	}

	params := ListParams{
		Month:   month,
		Page:    1,
		PerPage: 10,
		Search:  strings.TrimSpace(query.Get("search")),
	}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			params.Page = p
		}
	}
	if v := strings.TrimSpace(query.Get("perPage")); v != "" {
		if pp, err := strconv.Atoi(v); err == nil && pp > 0 {
			params.PerPage = pp
		}
	}

	return params, nil
}
