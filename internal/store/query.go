package store

import (
	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/queryir"
	"github.com/roach88/nftreg/internal/querysql"
)

// eventColumns is the projection scanEvent expects.
var eventColumns = []string{"seq", "id", "tx_id", "payload"}

// eventQuery translates filter into a select over the events table.
// Token filters compare against the padded token_id column, which is NULL
// for ApprovalForAll events, so those never match a token.
func eventQuery(filter ir.EventFilter) queryir.Select {
	preds := []queryir.Predicate{
		queryir.After{Field: "seq", Value: filter.AfterSeq},
	}
	if filter.Kind != "" {
		preds = append(preds, queryir.Equals{Field: "kind", Value: string(filter.Kind)})
	}
	if filter.TokenID != nil {
		preds = append(preds, queryir.Equals{Field: "token_id", Value: tokenColumn(*filter.TokenID)})
	}
	return queryir.Select{
		From:    "events",
		Columns: eventColumns,
		Filter:  queryir.And{Predicates: preds},
		OrderBy: "seq",
		Limit:   filter.Limit,
	}
}

// txQuery selects the events committed under txID.
func txQuery(txID string) queryir.Select {
	return queryir.Select{
		From:    "events",
		Columns: eventColumns,
		Filter:  queryir.Equals{Field: "tx_id", Value: txID},
		OrderBy: "seq",
	}
}

func compileQuery(sel queryir.Select) (string, []any, error) {
	return querysql.NewSQLCompiler().Compile(sel)
}
