package queryir

// Predicate represents a filter condition in a Select.
//
// This is a sealed interface: only Equals, After and And implement it.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from a single table, keeping rows that satisfy
// Filter, ordered ascending by OrderBy.
//
//	Select{
//	  From:    "events",
//	  Columns: []string{"seq", "payload"},
//	  Filter:  And{Predicates: []Predicate{
//	    After{Field: "seq", Value: 10},
//	    Equals{Field: "kind", Value: "Transfer"},
//	  }},
//	  OrderBy: "seq",
//	  Limit:   50,
//	}
//
// reads as
//
//	SELECT seq, payload FROM events
//	WHERE seq > 10 AND kind = 'Transfer'
//	ORDER BY seq ASC LIMIT 50
type Select struct {
	From    string    // Table name
	Columns []string  // Explicit column list, in result order
	Filter  Predicate // nil keeps every row
	OrderBy string    // Ascending order column (required)
	Limit   int       // 0 means no limit
}

// Equals holds when Field equals Value.
// Value must be a string, bool or integer.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// After holds when Field is strictly greater than Value.
// Used for sequence cursors.
type After struct {
	Field string
	Value int64
}

func (After) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Fields returns the fields referenced by p, in traversal order.
func Fields(p Predicate) []string {
	var out []string
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			out = append(out, pred.Field)
		case After:
			out = append(out, pred.Field)
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		}
	}
	walk(p)
	return out
}
