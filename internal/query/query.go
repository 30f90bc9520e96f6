// Package query builds parameterized WHERE-clause predicates for the
// reporting fact tables. Each filter is a Cond value; a single Render
// step turns a base statement plus a sequence of Conds into SQL with ?
// placeholders and an ordered bound-value list. The repository rebinds
// placeholders for PostgreSQL.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/supplylens/supplylens/internal/domain"
)

type kind int

const (
	kindNone kind = iota
	kindEquals
	kindGTE
	kindLTE
	kindInSet
	kindOrEquals
	kindOrInSet
	kindYearMonthFrom
	kindYearMonthTo
	kindExistsCategory
)

// Cond is one predicate fragment. The zero value renders nothing, which
// is how absent filters are expressed: constructors return it when the
// supplied value is empty.
type Cond struct {
	kind    kind
	column  string
	column2 string
	value   any
	values  []string
	year    int
	month   int
}

// Equals matches a scalar column value. Absent when v is the zero
// string; numeric callers guard presence themselves.
func Equals(column string, v any) Cond {
	if s, ok := v.(string); ok && s == "" {
		return Cond{}
	}
	return Cond{kind: kindEquals, column: column, value: v}
}

// GTE matches column >= v.
func GTE(column string, v any) Cond {
	return Cond{kind: kindGTE, column: column, value: v}
}

// LTE matches column <= v.
func LTE(column string, v any) Cond {
	return Cond{kind: kindLTE, column: column, value: v}
}

// InSet matches column membership in values. An empty set means the
// filter is absent, never "matches nothing".
func InSet(column string, values []string) Cond {
	if len(values) == 0 {
		return Cond{}
	}
	return Cond{kind: kindInSet, column: column, values: values}
}

// OrEquals matches v against either of two columns.
func OrEquals(a, b string, v any) Cond {
	if s, ok := v.(string); ok && s == "" {
		return Cond{}
	}
	return Cond{kind: kindOrEquals, column: a, column2: b, value: v}
}

// OrInSet matches membership against either of two columns, binding the
// value set once per side.
func OrInSet(a, b string, values []string) Cond {
	if len(values) == 0 {
		return Cond{}
	}
	return Cond{kind: kindOrInSet, column: a, column2: b, values: values}
}

// YearMonthFrom bounds (yearCol, monthCol) from below by a "YYYY-MM"
// value, inclusive. Year and month are stored as separate integer
// columns, so the bound decomposes into a disjunction.
func YearMonthFrom(yearCol, monthCol, ym string) (Cond, error) {
	y, m, err := splitYearMonth(ym)
	if err != nil {
		return Cond{}, err
	}
	return Cond{kind: kindYearMonthFrom, column: yearCol, column2: monthCol, year: y, month: m}, nil
}

// YearMonthTo bounds (yearCol, monthCol) from above, inclusive.
func YearMonthTo(yearCol, monthCol, ym string) (Cond, error) {
	y, m, err := splitYearMonth(ym)
	if err != nil {
		return Cond{}, err
	}
	return Cond{kind: kindYearMonthTo, column: yearCol, column2: monthCol, year: y, month: m}, nil
}

func splitYearMonth(ym string) (int, int, error) {
	parts := strings.SplitN(ym, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidYearMonth, ym)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidYearMonth, ym)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", domain.ErrInvalidYearMonth, ym)
	}
	return y, m, nil
}

// HSCode applies the HS-code filter hierarchy to column: full codes win
// over the prefix+suffix combination, which wins over prefix-only, then
// suffix-only. Prefix+suffix expands to the cross-product of
// {prefix}{suffix} pairs and filters by membership in that set, so
// unrelated codes sharing only one half never match.
func HSCode(column string, full, prefixes, suffixes []string) Cond {
	switch {
	case len(full) > 0:
		return InSet(column, full)
	case len(prefixes) > 0 && len(suffixes) > 0:
		combos := make([]string, 0, len(prefixes)*len(suffixes))
		for _, p := range prefixes {
			for _, s := range suffixes {
				combos = append(combos, p+s)
			}
		}
		return InSet(column, combos)
	case len(prefixes) > 0:
		// chapter = first two digits
		return InSet("substr("+column+", 1, 2)", prefixes)
	case len(suffixes) > 0:
		return InSet("substr("+column+", length("+column+") - 1, 2)", suffixes)
	}
	return Cond{}
}

// CategoryInSet matches fact rows whose comma-delimited HS-code column
// mentions at least one code whose 2-digit chapter belongs to one of
// the given categories, via the hs_code_categories mapping table.
func CategoryInSet(hsCodesColumn string, categoryIDs []string) Cond {
	if len(categoryIDs) == 0 {
		return Cond{}
	}
	return Cond{kind: kindExistsCategory, column: hsCodesColumn, values: categoryIDs}
}

// Render appends the conditions to base as an AND chain and returns the
// statement with ? placeholders plus the ordered bound values. The base
// is expected to already contain a WHERE clause (commonly "... WHERE 1=1").
func Render(base string, conds ...Cond) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	var args []any

	for _, c := range conds {
		switch c.kind {
		case kindNone:
			continue
		case kindEquals:
			sb.WriteString(" AND " + c.column + " = ?")
			args = append(args, c.value)
		case kindGTE:
			sb.WriteString(" AND " + c.column + " >= ?")
			args = append(args, c.value)
		case kindLTE:
			sb.WriteString(" AND " + c.column + " <= ?")
			args = append(args, c.value)
		case kindInSet:
			sb.WriteString(" AND " + c.column + " IN (" + placeholders(len(c.values)) + ")")
			for _, v := range c.values {
				args = append(args, v)
			}
		case kindOrEquals:
			sb.WriteString(" AND (" + c.column + " = ? OR " + c.column2 + " = ?)")
			args = append(args, c.value, c.value)
		case kindOrInSet:
			ph := placeholders(len(c.values))
			sb.WriteString(" AND (" + c.column + " IN (" + ph + ") OR " + c.column2 + " IN (" + ph + "))")
			for i := 0; i < 2; i++ {
				for _, v := range c.values {
					args = append(args, v)
				}
			}
		case kindYearMonthFrom:
			sb.WriteString(" AND (" + c.column + " > ? OR (" + c.column + " = ? AND " + c.column2 + " >= ?))")
			args = append(args, c.year, c.year, c.month)
		case kindYearMonthTo:
			sb.WriteString(" AND (" + c.column + " < ? OR (" + c.column + " = ? AND " + c.column2 + " <= ?))")
			args = append(args, c.year, c.year, c.month)
		case kindExistsCategory:
			sb.WriteString(" AND EXISTS (SELECT 1 FROM hs_code_categories h" +
				" WHERE h.category_id IN (" + placeholders(len(c.values)) + ")" +
				" AND ',' || replace(" + c.column + ", ' ', '') || ',' LIKE '%,' || h.hs_code || '%')")
			for _, v := range c.values {
				args = append(args, v)
			}
		}
	}

	return sb.String(), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
