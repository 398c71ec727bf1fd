package query

import (
	"fmt"
	"strings"
)

// Pipeline compiles list options into a SELECT and matching COUNT statement.
// Column and table names come from code, never from request input; request
// values are always bound as placeholders.
type Pipeline struct {
	table    string
	alias    string
	columns  []string
	joins    []string
	where    []string
	args     []any
	sortable map[string]string
	params   Params
	paged    bool
}

// From starts a pipeline over table, referenced in expressions by alias.
func From(table, alias string) *Pipeline {
	return &Pipeline{table: table, alias: alias}
}

// Select sets the projected columns.
func (p *Pipeline) Select(columns ...string) *Pipeline {
	p.columns = append(p.columns, columns...)
	return p
}

// LeftJoin attaches one related table. Rows without a match keep NULL columns.
func (p *Pipeline) LeftJoin(table, alias, on string) *Pipeline {
	p.joins = append(p.joins, fmt.Sprintf("LEFT JOIN %s %s ON %s", table, alias, on))
	return p
}

// Match adds an equality filter column = value.
func (p *Pipeline) Match(column string, value any) *Pipeline {
	p.args = append(p.args, value)
	p.where = append(p.where, fmt.Sprintf("%s = $%d", column, len(p.args)))
	return p
}

// Search adds a case-insensitive substring filter. Empty text is ignored and
// LIKE wildcards in text match literally.
func (p *Pipeline) Search(column, text string) *Pipeline {
	if text == "" {
		return p
	}
	p.args = append(p.args, "%"+EscapeLike(text)+"%")
	p.where = append(p.where, fmt.Sprintf("%s ILIKE $%d", column, len(p.args)))
	return p
}

// Sortable whitelists the request sort fields and the columns they map to.
// The map must contain DefaultSort.
func (p *Pipeline) Sortable(fields map[string]string) *Pipeline {
	p.sortable = fields
	return p
}

// Paginate applies the sort and page window from params.
func (p *Pipeline) Paginate(params Params) *Pipeline {
	p.params = params
	p.paged = true
	return p
}

// SQL renders the page query and its arguments.
func (p *Pipeline) SQL() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(p.columns) == 0 {
		b.WriteString(p.alias + ".*")
	} else {
		b.WriteString(strings.Join(p.columns, ", "))
	}
	p.writeFrom(&b)

	args := append([]any(nil), p.args...)
	if p.paged {
		dir := "DESC"
		if p.params.Asc {
			dir = "ASC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s, %s.id ASC", p.sortColumn(), dir, p.alias)
		args = append(args, p.params.Limit, p.params.Offset())
		fmt.Fprintf(&b, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	return b.String(), args
}

// CountSQL renders the count of all rows matching the filters.
func (p *Pipeline) CountSQL() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT count(*)")
	p.writeFrom(&b)
	return b.String(), append([]any(nil), p.args...)
}

func (p *Pipeline) writeFrom(b *strings.Builder) {
	fmt.Fprintf(b, " FROM %s %s", p.table, p.alias)
	for _, join := range p.joins {
		b.WriteString(" " + join)
	}
	if len(p.where) > 0 {
		b.WriteString(" WHERE " + strings.Join(p.where, " AND "))
	}
}

func (p *Pipeline) sortColumn() string {
	if col, ok := p.sortable[p.params.SortBy]; ok {
		return col
	}
	if col, ok := p.sortable[DefaultSort]; ok {
		return col
	}
	return p.alias + ".created_at"
}

// EscapeLike escapes the LIKE metacharacters in s using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
