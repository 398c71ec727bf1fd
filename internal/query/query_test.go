package query

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
)

func TestParseParamsDefaults(t *testing.T) {
	p, err := ParseParams(url.Values{}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Page != 1 || p.Limit != 10 || p.SortBy != DefaultSort || p.Asc {
		t.Fatalf("unexpected defaults: %+v", p)
	}
	if p.Offset() != 0 {
		t.Fatalf("expected zero offset got %d", p.Offset())
	}
}

func TestParseParamsRejectsInvalidValues(t *testing.T) {
	cases := []url.Values{
		{"page": {"abc"}},
		{"page": {"0"}},
		{"limit": {"0"}},
		{"limit": {"-5"}},
		{"limit": {"1.5"}},
	}
	for _, values := range cases {
		if _, err := ParseParams(values, 100); !apperrors.IsKind(err, apperrors.KindValidation) {
			t.Fatalf("expected validation error for %v got %v", values, err)
		}
	}
}

func TestParseParamsRejectsOverflowingPages(t *testing.T) {
	_, err := ParseParams(url.Values{"page": {"9223372036854775807"}, "limit": {"100"}}, 100)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error got %v", err)
	}

	last := strconv.Itoa(MaxOffset + 1)
	p, err := ParseParams(url.Values{"page": {last}, "limit": {"1"}}, 100)
	if err != nil {
		t.Fatalf("unexpected error at the offset bound: %v", err)
	}
	if p.Offset() != MaxOffset {
		t.Fatalf("expected offset %d got %d", MaxOffset, p.Offset())
	}

	_, err = ParseParams(url.Values{"page": {strconv.Itoa(MaxOffset + 2)}, "limit": {"1"}}, 100)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error past the bound got %v", err)
	}
}

func TestParseParamsClampsLimitAndReadsSort(t *testing.T) {
	p, err := ParseParams(url.Values{
		"page":     {"3"},
		"limit":    {"500"},
		"sortBy":   {"views"},
		"sortType": {"ASC"},
		"query":    {"  cats "},
	}, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 50 {
		t.Fatalf("expected limit clamped to 50 got %d", p.Limit)
	}
	if p.Offset() != 100 {
		t.Fatalf("expected offset 100 got %d", p.Offset())
	}
	if p.SortBy != "views" || !p.Asc || p.Query != "cats" {
		t.Fatalf("unexpected params: %+v", p)
	}

	p, _ = ParseParams(url.Values{"sortType": {"up"}}, 50)
	if p.Asc {
		t.Fatal("anything but asc must sort descending")
	}
}

func TestNewPageMetadata(t *testing.T) {
	page := NewPage([]int{6, 7, 8, 9, 10}, 12, Params{Page: 2, Limit: 5})
	if page.TotalPages != 3 || page.PagingCounter != 6 {
		t.Fatalf("unexpected metadata: %+v", page)
	}
	if !page.HasPrevPage || !page.HasNextPage || *page.PrevPage != 1 || *page.NextPage != 3 {
		t.Fatalf("unexpected navigation: %+v", page)
	}

	empty := NewPage[int](nil, 0, Params{Page: 1, Limit: 10})
	if empty.Docs == nil || empty.TotalPages != 1 || empty.HasNextPage || empty.PrevPage != nil {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
}

func TestPipelineSQL(t *testing.T) {
	p := From("videos", "v").
		Select("v.id", "u.username").
		LeftJoin("users", "u", "u.id = v.owner_id").
		Match("v.is_published", true).
		Match("v.owner_id", "user-1").
		Search("v.title", "50%_off").
		Sortable(map[string]string{DefaultSort: "v.created_at", "views": "v.views"}).
		Paginate(Params{Page: 2, Limit: 5, SortBy: "views", Asc: true})

	sql, args := p.SQL()
	want := "SELECT v.id, u.username FROM videos v LEFT JOIN users u ON u.id = v.owner_id " +
		"WHERE v.is_published = $1 AND v.owner_id = $2 AND v.title ILIKE $3 " +
		"ORDER BY v.views ASC, v.id ASC LIMIT $4 OFFSET $5"
	if sql != want {
		t.Fatalf("unexpected sql:\n%s\nwant:\n%s", sql, want)
	}
	if len(args) != 5 || args[2] != `%50\%\_off%` || args[3] != 5 || args[4] != 5 {
		t.Fatalf("unexpected args: %v", args)
	}

	count, countArgs := p.CountSQL()
	if !strings.HasPrefix(count, "SELECT count(*) FROM videos v") || strings.Contains(count, "LIMIT") {
		t.Fatalf("unexpected count sql: %s", count)
	}
	if len(countArgs) != 3 {
		t.Fatalf("expected filter args only got %v", countArgs)
	}
}

func TestPipelineUnknownSortFallsBack(t *testing.T) {
	sql, _ := From("tweets", "t").
		Sortable(map[string]string{DefaultSort: "t.created_at"}).
		Paginate(Params{Page: 1, Limit: 10, SortBy: "password"}).
		SQL()
	if !strings.Contains(sql, "ORDER BY t.created_at DESC, t.id ASC") {
		t.Fatalf("expected default sort got %s", sql)
	}
	if strings.Contains(sql, "password") {
		t.Fatalf("request sort field must never reach sql: %s", sql)
	}
}

type item struct {
	rank      int
	title     string
	published bool
	createdAt time.Time
}

func seed(n int) []item {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]item, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, item{
			rank:      n - i + 1,
			title:     "video",
			published: true,
			createdAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return items
}

var itemSorts = map[string]Compare[item]{
	DefaultSort: func(a, b item) int { return a.createdAt.Compare(b.createdAt) },
	"title":     func(a, b item) int { return strings.Compare(a.title, b.title) },
}

func TestApplyReturnsRequestedRanks(t *testing.T) {
	items := seed(12)
	docs, total := Apply(items, func(it item) bool { return it.published }, itemSorts,
		Params{Page: 2, Limit: 5, SortBy: DefaultSort})
	if total != 12 || len(docs) != 5 {
		t.Fatalf("unexpected result total=%d len=%d", total, len(docs))
	}
	for i, doc := range docs {
		if doc.rank != 6+i {
			t.Fatalf("position %d: expected rank %d got %d", i, 6+i, doc.rank)
		}
	}
}

func TestApplyPagesPartitionTheFilteredSet(t *testing.T) {
	items := seed(23)
	for i := range items {
		items[i].published = i%4 != 0
	}
	keep := func(it item) bool { return it.published }

	for _, limit := range []int{1, 3, 5, 7, 100} {
		seen := map[int]bool{}
		var expected int64
		for page := 1; ; page++ {
			params := Params{Page: page, Limit: limit, SortBy: "title"}
			docs, total := Apply(items, keep, itemSorts, params)
			expected = total
			meta := NewPage(docs, total, params)
			if len(docs) > limit {
				t.Fatalf("limit %d: page %d has %d docs", limit, page, len(docs))
			}
			for _, doc := range docs {
				if seen[doc.rank] {
					t.Fatalf("limit %d: rank %d repeated", limit, doc.rank)
				}
				seen[doc.rank] = true
			}
			if page >= meta.TotalPages {
				break
			}
		}
		if int64(len(seen)) != expected {
			t.Fatalf("limit %d: saw %d of %d docs", limit, len(seen), expected)
		}
	}
}

func TestApplyBeyondLastPage(t *testing.T) {
	docs, total := Apply(seed(3), nil, itemSorts, Params{Page: 5, Limit: 10})
	if total != 3 || len(docs) != 0 || docs == nil {
		t.Fatalf("expected empty non-nil page, got %v total %d", docs, total)
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Funny Cats", "cAT") || ContainsFold("dogs", "cat") || !ContainsFold("x", "") {
		t.Fatal("unexpected ContainsFold result")
	}
}
