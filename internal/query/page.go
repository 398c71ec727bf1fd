package query

// Page is one slice of a filtered, sorted result set plus its count metadata.
type Page[T any] struct {
	Docs          []T   `json:"docs"`
	TotalDocs     int64 `json:"totalDocs"`
	Limit         int   `json:"limit"`
	Page          int   `json:"page"`
	TotalPages    int   `json:"totalPages"`
	PagingCounter int   `json:"pagingCounter"`
	HasPrevPage   bool  `json:"hasPrevPage"`
	HasNextPage   bool  `json:"hasNextPage"`
	PrevPage      *int  `json:"prevPage"`
	NextPage      *int  `json:"nextPage"`
}

// NewPage assembles the metadata for docs taken at p out of total matches.
// An empty result still reports one page.
func NewPage[T any](docs []T, total int64, p Params) Page[T] {
	if docs == nil {
		docs = []T{}
	}
	limit := int64(p.Limit)
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := int((total + limit - 1) / limit)
	if totalPages < 1 {
		totalPages = 1
	}

	page := Page[T]{
		Docs:          docs,
		TotalDocs:     total,
		Limit:         int(limit),
		Page:          p.Page,
		TotalPages:    totalPages,
		PagingCounter: (p.Page-1)*int(limit) + 1,
		HasPrevPage:   p.Page > 1,
		HasNextPage:   p.Page < totalPages,
	}
	if page.HasPrevPage {
		prev := p.Page - 1
		page.PrevPage = &prev
	}
	if page.HasNextPage {
		next := p.Page + 1
		page.NextPage = &next
	}
	return page
}
