package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSelect() Select {
	return Select{
		From:    "events",
		Columns: []string{"seq", "payload"},
		Filter: And{Predicates: []Predicate{
			After{Field: "seq", Value: 3},
			Equals{Field: "kind", Value: "Transfer"},
		}},
		OrderBy: "seq",
		Limit:   10,
	}
}

func TestValidate_ValidSelect(t *testing.T) {
	assert.NoError(t, Validate(validSelect()))
}

func TestValidate_NilFilter(t *testing.T) {
	sel := validSelect()
	sel.Filter = nil
	assert.NoError(t, Validate(sel))
}

func TestValidate_EmptyAnd(t *testing.T) {
	sel := validSelect()
	sel.Filter = And{}
	assert.NoError(t, Validate(sel))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Select)
		want   string
	}{
		{"empty table", func(s *Select) { s.From = "" }, `table "" is not an identifier`},
		{"injected table", func(s *Select) { s.From = "events; DROP TABLE kv" }, "table"},
		{"no columns", func(s *Select) { s.Columns = nil }, "no columns selected"},
		{"star column", func(s *Select) { s.Columns = []string{"*"} }, `column "*" is not an identifier`},
		{"missing order", func(s *Select) { s.OrderBy = "" }, "missing order column"},
		{"bad order", func(s *Select) { s.OrderBy = "seq DESC" }, "order column"},
		{"negative limit", func(s *Select) { s.Limit = -1 }, "negative limit -1"},
		{"leading digit field", func(s *Select) { s.Filter = Equals{Field: "1kind", Value: "x"} }, `field "1kind"`},
		{"float value", func(s *Select) { s.Filter = Equals{Field: "kind", Value: 1.5} }, "unsupported value float64"},
		{"nil value", func(s *Select) { s.Filter = Equals{Field: "kind"} }, "unsupported value <nil>"},
		{"nil in and", func(s *Select) { s.Filter = And{Predicates: []Predicate{nil}} }, "nil predicate"},
		{"nested bad field", func(s *Select) {
			s.Filter = And{Predicates: []Predicate{And{Predicates: []Predicate{After{Field: "seq-1"}}}}}
		}, `field "seq-1"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := validSelect()
			tt.mutate(&sel)

			err := Validate(sel)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	err := Validate(Select{Limit: -5})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 4)
}

func TestValidate_Idempotent(t *testing.T) {
	sel := Select{From: "events", Columns: []string{"*"}, OrderBy: "seq"}
	assert.Equal(t, Validate(sel).Error(), Validate(sel).Error())
}

func TestFields(t *testing.T) {
	p := And{Predicates: []Predicate{
		After{Field: "seq", Value: 0},
		And{Predicates: []Predicate{Equals{Field: "kind", Value: "Approval"}}},
		Equals{Field: "token_id", Value: "00000000000000000001"},
	}}
	assert.Equal(t, []string{"seq", "kind", "token_id"}, Fields(p))
	assert.Nil(t, Fields(nil))
}
