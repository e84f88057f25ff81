// Package querysql compiles queryir selects to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/nftreg/internal/queryir"
)

// SQLCompiler compiles queryir selects to parameterized SQL for SQLite.
//
// Every compiled statement carries an ORDER BY, and values are always bound
// as parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates sel and converts it to SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(sel queryir.Select) (string, []any, error) {
	if err := queryir.Validate(sel); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var params []any

	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(sel.Columns, ", "), sel.From)

	if sel.Filter != nil {
		where, filterParams, err := c.compilePredicate(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, filterParams...)
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(stableOrderKey(sel))

	if sel.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, sel.Limit)
	}

	return b.String(), params, nil
}

// stableOrderKey returns the ORDER BY clause body for sel.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey(sel queryir.Select) string {
	return sel.OrderBy + " ASC COLLATE BINARY"
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}, nil
	case queryir.After:
		return pred.Field + " > ?", []any{pred.Value}, nil
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if nested, ok := pred.(queryir.And); ok && len(nested.Predicates) > 1 {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	return strings.Join(parts, " AND "), params, nil
}
