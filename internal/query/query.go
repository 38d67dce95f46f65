// Package query compiles filter templates into SQL predicates and parses
// page/sort parameters for listing endpoints. Predicates are goqu
// expressions so repositories can compose them into their own statements.
package query

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Contains returns a case-insensitive substring predicate for col.
// LIKE metacharacters in value are escaped, so the input is always
// treated literally.
func Contains(col string, value string) exp.Expression {
	return goqu.I(col).ILike("%" + EscapeLike(value) + "%")
}

// Eq returns an exact-match predicate for col. Used for numeric fields,
// where substring matching has no defined semantics.
func Eq(col string, value any) exp.Expression {
	return goqu.I(col).Eq(value)
}

// And combines predicates with logical AND, skipping nil entries.
// It returns nil when every entry is nil, which callers treat as
// "no constraint": an all-absent filter template matches every row.
func And(exprs ...exp.Expression) exp.Expression {
	present := make([]exp.Expression, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			present = append(present, e)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return goqu.And(present...)
}

// EscapeLike escapes the LIKE pattern metacharacters (backslash, percent,
// underscore) in s.
func EscapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
