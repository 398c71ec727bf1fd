package query

import (
	"sort"
	"strings"
)

// Compare orders two items for one sort field, returning <0, 0 or >0.
type Compare[T any] func(a, b T) int

// Apply evaluates params over items held in memory with the same semantics as
// Pipeline: keep filters, the sort falls back to DefaultSort for unknown
// fields, ties keep insertion order, and the page window is sliced last.
// It returns the page documents and the total number of matches. It backs
// the in-memory stores used by handler tests.
func Apply[T any](items []T, keep func(T) bool, sorts map[string]Compare[T], params Params) ([]T, int64) {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if keep == nil || keep(item) {
			matched = append(matched, item)
		}
	}

	cmp, ok := sorts[params.SortBy]
	if !ok {
		cmp = sorts[DefaultSort]
	}
	if cmp != nil {
		sort.SliceStable(matched, func(i, j int) bool {
			c := cmp(matched[i], matched[j])
			if params.Asc {
				return c < 0
			}
			return c > 0
		})
	}

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) || start < 0 {
		return []T{}, total
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}

// ContainsFold reports whether sub occurs in s ignoring case. An empty sub matches everything.
func ContainsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
