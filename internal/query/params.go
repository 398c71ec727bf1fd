// Package query implements the list pipeline shared by every paginated
// endpoint: scope and equality filters, an optional case-insensitive search,
// a whitelisted sort with a deterministic tie-break, a one-level owner join and
// page/limit slicing. The same semantics are available as SQL (Pipeline) and
// in memory (Apply).
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	// DefaultSort is the field used when sortBy is absent or not allowed for a resource.
	DefaultSort = "createdAt"
	// MaxOffset bounds (page-1)*limit so offsets never overflow.
	MaxOffset = math.MaxInt32
)

// Params are the normalised list options taken from a request's query string.
type Params struct {
	Page   int
	Limit  int
	Query  string
	SortBy string
	Asc    bool
}

// Offset is the number of matching rows skipped before the page starts.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParseParams reads page, limit, query, sortBy and sortType. Non-numeric or
// non-positive page/limit values are rejected; limits above maxLimit are clamped.
// Pages whose offset would exceed MaxOffset are rejected.
// sortType "asc" sorts ascending and anything else descending.
func ParseParams(values url.Values, maxLimit int) (Params, error) {
	p := Params{
		Page:   DefaultPage,
		Limit:  DefaultLimit,
		Query:  strings.TrimSpace(values.Get("query")),
		SortBy: strings.TrimSpace(values.Get("sortBy")),
		Asc:    strings.EqualFold(strings.TrimSpace(values.Get("sortType")), "asc"),
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSort
	}

	var err error
	if p.Page, err = positiveInt(values, "page", DefaultPage); err != nil {
		return Params{}, err
	}
	if p.Limit, err = positiveInt(values, "limit", DefaultLimit); err != nil {
		return Params{}, err
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Page-1 > MaxOffset/p.Limit {
		return Params{}, apperrors.Validation("page is out of range")
	}
	return p, nil
}

func positiveInt(values url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation("%s must be an integer", key)
	}
	if n < 1 {
		return 0, apperrors.Validation("%s must be at least 1", key)
	}
	return n, nil
}
