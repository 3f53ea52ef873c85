package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// From starts a query builder for a table.
func (c *Client) From(table string) *QueryBuilder {
	return &QueryBuilder{
		client: c,
		table:  table,
	}
}

type filter struct {
	column string
	expr   string
}

// QueryBuilder builds data API requests. Builders are single use.
type QueryBuilder struct {
	client  *Client
	table   string
	columns string
	filters []filter
	orders  []string
	limit   int
	single  bool
}

// Select specifies columns to return, including embedded relations
// such as "*, passport:passports(first_name)".
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, filter{column, fmt.Sprintf("eq.%v", value)})
	return q
}

// Neq adds a not-equal filter.
func (q *QueryBuilder) Neq(column string, value any) *QueryBuilder {
	q.filters = append(q.filters, filter{column, fmt.Sprintf("neq.%v", value)})
	return q
}

// ILike adds a case-insensitive pattern filter. Use * as the wildcard.
func (q *QueryBuilder) ILike(column, pattern string) *QueryBuilder {
	q.filters = append(q.filters, filter{column, "ilike." + pattern})
	return q
}

// Order adds an ORDER BY clause.
func (q *QueryBuilder) Order(column string, ascending bool) *QueryBuilder {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Limit sets the LIMIT.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Single expects exactly one row. Zero rows fail with CodeNoRows.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.single = true
	return q
}

func (q *QueryBuilder) path(extra url.Values) string {
	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	for _, f := range q.filters {
		params.Add(f.column, f.expr)
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", strconv.Itoa(q.limit))
	}
	for k, vs := range extra {
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	p := "/rest/v1/" + q.table
	if len(params) > 0 {
		p += "?" + params.Encode()
	}
	return p
}

func (q *QueryBuilder) send(ctx context.Context, method, operation string, body any, prefer string, extra url.Values) (*Response, error) {
	req, err := q.client.newRequest(ctx, method, q.path(extra), body)
	if err != nil {
		return nil, err
	}
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	return q.client.do(req, operation)
}

// Execute runs a SELECT.
func (q *QueryBuilder) Execute(ctx context.Context) (*Response, error) {
	return q.send(ctx, http.MethodGet, "select", nil, "", nil)
}

// Insert inserts one row or a slice of rows.
func (q *QueryBuilder) Insert(ctx context.Context, rows any) (*Response, error) {
	return q.send(ctx, http.MethodPost, "insert", rows, "return=representation", nil)
}

// Upsert inserts rows, merging into existing ones that collide on onConflict.
func (q *QueryBuilder) Upsert(ctx context.Context, rows any, onConflict string) (*Response, error) {
	var extra url.Values
	if onConflict != "" {
		extra = url.Values{"on_conflict": {onConflict}}
	}
	return q.send(ctx, http.MethodPost, "upsert", rows, "resolution=merge-duplicates,return=representation", extra)
}

// Update patches every row matching the filters.
func (q *QueryBuilder) Update(ctx context.Context, patch any) (*Response, error) {
	return q.send(ctx, http.MethodPatch, "update", patch, "return=representation", nil)
}

// Delete removes every row matching the filters.
func (q *QueryBuilder) Delete(ctx context.Context) (*Response, error) {
	return q.send(ctx, http.MethodDelete, "delete", nil, "return=representation", nil)
}
