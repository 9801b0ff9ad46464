// Package listing builds the search and sort part of the public list queries.
package listing

import (
	"net/url"
	"strings"
)

type Sort string

const (
	SortLatest Sort = "latest"
	SortOldest Sort = "oldest"
	SortAZ     Sort = "az"
	SortZA     Sort = "za"
)

// ParseSort maps a query value to a Sort. Unknown values are SortLatest.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortAZ, SortZA:
		return Sort(s)
	default:
		return SortLatest
	}
}

// Params are the user-controlled inputs of a list view.
type Params struct {
	Search string
	Sort   Sort
}

// FromQuery reads the search term from searchKey and the sort from "sort".
func FromQuery(q url.Values, searchKey string) Params {
	return Params{
		Search: strings.TrimSpace(q.Get(searchKey)),
		Sort:   ParseSort(q.Get("sort")),
	}
}

// View describes which columns a list view searches and sorts on.
type View struct {
	SearchColumns []string
	DateColumn    string
	TitleColumn   string
}

// OrderBy returns the ORDER BY expression for sort, with id as tie-breaker.
func (s View) OrderBy(sort Sort) string {
	switch sort {
	case SortOldest:
		return s.DateColumn + " ASC, id ASC"
	case SortAZ:
		return s.TitleColumn + " ASC, id ASC"
	case SortZA:
		return s.TitleColumn + " DESC, id DESC"
	default:
		return s.DateColumn + " DESC, id DESC"
	}
}

// Apply adds the search condition and ordering for p to b.
func (s View) Apply(b *Builder, p Params) *Builder {
	return b.Search(s.SearchColumns, p.Search).OrderBy(s.OrderBy(p.Sort))
}

// Builder accumulates WHERE conditions over a base SELECT.
type Builder struct {
	base    string
	where   []string
	args    []any
	orderBy string
	limit   int
}

// Select starts a query from a "SELECT ... FROM ..." statement.
func Select(base string) *Builder {
	return &Builder{base: base}
}

// Where adds a condition. Conditions are joined with AND.
func (b *Builder) Where(cond string, args ...any) *Builder {
	b.where = append(b.where, cond)
	b.args = append(b.args, args...)
	return b
}

// Search adds a case-insensitive substring match of term against any of
// columns. A blank term adds nothing.
func (b *Builder) Search(columns []string, term string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		parts[i] = "COALESCE(" + col + ", '') LIKE ? ESCAPE '\\'"
		args[i] = pattern
	}
	return b.Where("("+strings.Join(parts, " OR ")+")", args...)
}

func (b *Builder) OrderBy(expr string) *Builder {
	b.orderBy = expr
	return b
}

// Limit caps the number of rows. Zero means no limit.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Build returns the final SQL and its arguments.
func (b *Builder) Build() (string, []any) {
	var sb strings.Builder
	sb.WriteString(b.base)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if b.orderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.orderBy)
	}
	args := b.args
	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args[:len(args):len(args)], b.limit)
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
