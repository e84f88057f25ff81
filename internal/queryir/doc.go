// Package queryir provides a small query representation for reads of the
// registry's event log.
//
// Readers describe what they want as a Select and hand it to a backend
// compiler (see package querysql). The representation is deliberately
// narrow:
//
//   - Select(from, columns, filter, order, limit) over a single table
//   - Predicates: Equals, After, And
//   - Explicit columns (no SELECT *)
//   - A mandatory ascending order column, so every read is deterministic
//
// Predicate is a sealed interface using the marker method pattern, so
// compilers can switch exhaustively over the predicate types:
//
//	switch p := pred.(type) {
//	case Equals:
//	case After:
//	case And:
//	}
//
// Validate checks a Select against these rules before compilation.
package queryir
