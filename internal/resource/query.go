// AngelaMos | 2026
// query.go

package resource

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/carterperez-dev/templates/accounts-api/internal/core"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = 1000
	// MaxPage keeps (page-1)*limit well inside the range of an int.
	MaxPage      = 1_000_000
)

type Op string

const (
	OpEq  Op = "eq"
	OpGte Op = "gte"
	OpGt  Op = "gt"
	OpLte Op = "lte"
	OpLt  Op = "lt"
)

// SQL returns the comparison operator for op.
func (o Op) SQL() string {
	switch o {
	case OpGte:
		return ">="
	case OpGt:
		return ">"
	case OpLte:
		return "<="
	case OpLt:
		return "<"
	default:
		return "="
	}
}

type Filter struct {
	Field string
	Op    Op
	Value string
}

type SortField struct {
	Field string
	Desc  bool
}

// Query is the parsed form of a list request's query string.
type Query struct {
	Filters []Filter
	Sort    []SortField
	Fields  []string
	Page    int
	Limit   int
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// HasFilter reports whether the caller filtered on field explicitly.
func (q Query) HasFilter(field string) bool {
	return slices.ContainsFunc(q.Filters, func(f Filter) bool {
		return f.Field == field
	})
}

var reservedParams = map[string]struct{}{
	"page":   {},
	"sort":   {},
	"limit":  {},
	"fields": {},
}

var filterKey = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)(?:\[([a-z]+)\])?$`)

// ParseQuery reads filters (field=v, field[gte]=v), sort=a,-b, fields=a,b,
// page and limit. Field names are not checked here; stores reject the ones
// they do not know.
func ParseQuery(values url.Values) (Query, error) {
	q := Query{Page: DefaultPage, Limit: DefaultLimit}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}

		m := filterKey.FindStringSubmatch(key)
		if m == nil {
			return Query{}, core.BadRequestError(
				fmt.Sprintf("Invalid query parameter: %s", key),
			)
		}

		op := OpEq
		if m[2] != "" {
			op = Op(m[2])
			switch op {
			case OpGte, OpGt, OpLte, OpLt:
			default:
				return Query{}, core.BadRequestError(
					fmt.Sprintf("Invalid filter operator: %s", m[2]),
				)
			}
		}

		for _, v := range values[key] {
			q.Filters = append(q.Filters, Filter{Field: m[1], Op: op, Value: v})
		}
	}

	for _, field := range splitList(values.Get("sort")) {
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
		if field == "" {
			continue
		}
		q.Sort = append(q.Sort, SortField{Field: field, Desc: desc})
	}

	q.Fields = splitList(values.Get("fields"))

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, core.BadRequestError("page must be a number")
		}
		if page > MaxPage {
			return Query{}, core.BadRequestError(
				fmt.Sprintf("page must be at most %d", MaxPage),
			)
		}
		if page > 0 {
			q.Page = page
		}
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, core.BadRequestError("limit must be a number")
		}
		if limit > 0 {
			q.Limit = min(limit, MaxLimit)
		}
	}

	return q, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
