package queryir

import (
	"fmt"
	"strings"
)

// ValidationError lists every rule a Select breaks.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks sel against the query rules:
//  1. From, every column, OrderBy and every predicate field are plain identifiers
//  2. Columns are explicit (no SELECT *)
//  3. OrderBy is set
//  4. Equals values are strings, bools or integers
//  5. Limit is not negative
//
// Returns nil when sel is valid, otherwise a *ValidationError.
func Validate(sel Select) error {
	v := &validator{}

	v.identifier("table", sel.From)
	if len(sel.Columns) == 0 {
		v.addProblem("no columns selected")
	}
	for _, col := range sel.Columns {
		v.identifier("column", col)
	}
	if sel.OrderBy == "" {
		v.addProblem("missing order column")
	} else {
		v.identifier("order column", sel.OrderBy)
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.predicate(sel.Filter)
	}

	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) identifier(what, name string) {
	if !isIdentifier(name) {
		v.addProblem("%s %q is not an identifier", what, name)
	}
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.identifier("field", pred.Field)
		switch pred.Value.(type) {
		case string, bool, int, int64, uint64:
		default:
			v.addProblem("field %q compared to unsupported value %T", pred.Field, pred.Value)
		}
	case After:
		v.identifier("field", pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			if sub == nil {
				v.addProblem("nil predicate in conjunction")
				continue
			}
			v.predicate(sub)
		}
	default:
		v.addProblem("unsupported predicate %T", p)
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
