package backend

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Query builds the filter, ordering and projection parameters of a
// row-store request, e.g. ?user_id=eq.u1&due_date=gte.2026-...&order=due_date.asc.
type Query struct {
	values url.Values
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Select restricts the returned columns.
func (q *Query) Select(columns ...string) *Query {
	q.values.Set("select", strings.Join(columns, ","))
	return q
}

// Eq adds column = value.
func (q *Query) Eq(column, value string) *Query {
	q.values.Add(column, "eq."+value)
	return q
}

// EqBool adds column = true|false.
func (q *Query) EqBool(column string, value bool) *Query {
	return q.Eq(column, strconv.FormatBool(value))
}

// IsNull adds column IS NULL.
func (q *Query) IsNull(column string) *Query {
	q.values.Add(column, "is.null")
	return q
}

// NotNull adds column IS NOT NULL.
func (q *Query) NotNull(column string) *Query {
	q.values.Add(column, "not.is.null")
	return q
}

// Gte adds column >= t.
func (q *Query) Gte(column string, t time.Time) *Query {
	q.values.Add(column, "gte."+FormatTimestamp(t))
	return q
}

// Lte adds column <= t.
func (q *Query) Lte(column string, t time.Time) *Query {
	q.values.Add(column, "lte."+FormatTimestamp(t))
	return q
}

// In adds column IN (values...).
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	q.values.Add(column, "in.("+strings.Join(quoted, ",")+")")
	return q
}

// OrderAsc sorts ascending by column.
func (q *Query) OrderAsc(column string) *Query {
	q.values.Add("order", column+".asc")
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.values.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Values returns a copy of the encoded parameters.
func (q *Query) Values() url.Values {
	out := url.Values{}
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Encode renders the query string without the leading "?".
func (q *Query) Encode() string {
	return q.values.Encode()
}

// FormatTimestamp renders t the way the backend stores timestamps
// (UTC, millisecond precision).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// quoteValue wraps values containing list delimiters in double quotes.
func quoteValue(v string) string {
	if strings.ContainsAny(v, `,()" `) {
		return `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return v
}
