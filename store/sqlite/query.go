package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/unit-finance/allocation"
)

// ErrInvalidQuery is returned when a filter names a column the table does not expose.
var ErrInvalidQuery = errors.New("invalid query")

// =============================================================================
// QUERY FILTER BUILDER
// =============================================================================

// Op is a comparison operator.
type Op string

const (
	OpEq   Op = "="
	OpGte  Op = ">="
	OpLte  Op = "<="
	OpLike Op = "LIKE"
)

// Cond is one WHERE condition. Conditions are ANDed.
type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Cond  { return Cond{Column: column, Op: OpEq, Value: value} }
func Gte(column string, value any) Cond { return Cond{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Cond { return Cond{Column: column, Op: OpLte, Value: value} }

// likeEscaper escapes LIKE wildcards so they match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Like matches a substring, case-insensitively for ASCII. Wildcards in
// substr match themselves.
func Like(column, substr string) Cond {
	return Cond{Column: column, Op: OpLike, Value: "%" + likeEscaper.Replace(substr) + "%"}
}

// Query filters, orders and pages a List call. The zero value lists everything
// in the table's default order.
type Query struct {
	Where   []Cond
	OrderBy string
	Desc    bool
	Limit   int
	Offset  int
}

// Filter returns a copy of q with more conditions.
func (q Query) Filter(conds ...Cond) Query {
	out := q
	out.Where = append(append([]Cond(nil), q.Where...), conds...)
	return out
}

// InPeriod restricts a query to one accounting period.
func InPeriod(p allocation.Period) []Cond {
	return []Cond{Eq("period_year", p.Year), Eq("period_month", int(p.Month))}
}

// table describes which columns a query may reference. Values are SQL
// expressions, so decimal TEXT columns can compare numerically.
type table struct {
	name         string
	columns      map[string]string
	defaultOrder string
}

// build renders "WHERE ... ORDER BY ... LIMIT ... OFFSET ..." and its arguments.
func (t table) build(q Query) (string, []any, error) {
	var sb strings.Builder
	var args []any

	for i, c := range q.Where {
		expr, ok := t.columns[c.Column]
		if !ok {
			return "", nil, fmt.Errorf("%w: %s has no column %q", ErrInvalidQuery, t.name, c.Column)
		}
		switch c.Op {
		case OpEq, OpGte, OpLte, OpLike:
		default:
			return "", nil, fmt.Errorf("%w: operator %q", ErrInvalidQuery, c.Op)
		}
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		if c.Op == OpLike {
			fmt.Fprintf(&sb, "%s LIKE ? ESCAPE '\\'", expr)
		} else {
			fmt.Fprintf(&sb, "%s %s ?", expr, c.Op)
		}
		args = append(args, c.Value)
	}

	order := t.defaultOrder
	if q.OrderBy != "" {
		expr, ok := t.columns[q.OrderBy]
		if !ok {
			return "", nil, fmt.Errorf("%w: cannot order %s by %q", ErrInvalidQuery, t.name, q.OrderBy)
		}
		order = expr
	}
	sb.WriteString(" ORDER BY " + order)
	if q.Desc {
		sb.WriteString(" DESC")
	}
	// Stable paging when the sort key has ties.
	sb.WriteString(", id")

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
		if q.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, q.Offset)
		}
	} else if q.Offset > 0 {
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, q.Offset)
	}
	return sb.String(), args, nil
}

var periodColumns = map[string]string{
	"period_year":  "period_year",
	"period_month": "period_month",
}

func columns(plain []string, numeric []string, extra ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, c := range plain {
		out[c] = c
	}
	for _, c := range numeric {
		out[c] = "CAST(" + c + " AS REAL)"
	}
	for _, m := range extra {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

var (
	businessUnitsTable = table{
		name:         "business_units",
		columns:      columns([]string{"id", "name", "code", "manager", "active"}, nil),
		defaultOrder: "id",
	}
	employeesTable = table{
		name:         "employees",
		columns:      columns([]string{"id", "name", "position", "business_unit_id"}, []string{"base_salary"}, periodColumns),
		defaultOrder: "name",
	}
	fixedCostsTable = table{
		name:         "fixed_costs",
		columns:      columns([]string{"id", "name", "category"}, []string{"amount"}, periodColumns),
		defaultOrder: "name",
	}
	variableCostsTable = table{
		name:         "variable_costs",
		columns:      columns([]string{"id", "name", "category", "business_unit_id"}, []string{"amount"}, periodColumns),
		defaultOrder: "name",
	}
	revenueSourcesTable = table{
		name:         "revenue_sources",
		columns:      columns([]string{"id", "name", "business_unit_id"}, []string{"amount"}, periodColumns),
		defaultOrder: "name",
	}
	kpisTable = table{
		name:         "kpis",
		columns:      columns([]string{"id", "name", "unit", "status", "business_unit_id"}, []string{"target_value", "actual_value"}, periodColumns),
		defaultOrder: "name",
	}
)
