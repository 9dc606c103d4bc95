// internal/store/query.go
package store

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// selectQuery assembles a parameterised SELECT. Placeholders are numbered in
// the order conditions are added.
type selectQuery struct {
	table   string
	columns []string
	where   []string
	args    []interface{}
	orderBy string
	limit   int
}

func selectFrom(table string, columns ...string) *selectQuery {
	return &selectQuery{table: table, columns: columns}
}

func (q *selectQuery) placeholder(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// whereAny matches column against a text array bound with pq.Array.
func (q *selectQuery) whereAny(column string, values []string) *selectQuery {
	q.where = append(q.where, fmt.Sprintf("%s = ANY(%s)", column, q.placeholder(pq.Array(values))))
	return q
}

func (q *selectQuery) whereEq(column string, v interface{}) *selectQuery {
	q.where = append(q.where, fmt.Sprintf("%s = %s", column, q.placeholder(v)))
	return q
}

func (q *selectQuery) whereBetween(column string, lo, hi interface{}) *selectQuery {
	q.where = append(q.where, fmt.Sprintf("%s BETWEEN %s AND %s", column, q.placeholder(lo), q.placeholder(hi)))
	return q
}

// inMonth restricts column to the labelled EMI month; an empty label is a no-op.
func (q *selectQuery) inMonth(column string, m monthBounds) *selectQuery {
	if m.empty() {
		return q
	}
	return q.whereBetween(column, m.first, m.last)
}

func (q *selectQuery) order(expr string) *selectQuery {
	q.orderBy = expr
	return q
}

func (q *selectQuery) limitTo(n int) *selectQuery {
	q.limit = n
	return q
}

func (q *selectQuery) build() (string, []interface{}) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.orderBy)
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(q.placeholder(q.limit))
	}
	return b.String(), q.args
}
