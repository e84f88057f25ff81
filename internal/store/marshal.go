package store

import (
	"database/sql"
	"fmt"

	"github.com/roach88/nftreg/internal/ir"
)

// eventRow is the column form of an event.
type eventRow struct {
	seq     int64
	id      string
	txID    string
	kind    string
	tokenID sql.NullString
	payload string
}

// encodeEvent converts an event to its row. ApprovalForAll carries no
// token, so its token_id column is NULL.
func encodeEvent(ev ir.Event) (eventRow, error) {
	payload, err := ir.MarshalPayload(ev)
	if err != nil {
		return eventRow{}, err
	}
	row := eventRow{
		seq:     ev.Seq,
		id:      ev.ID,
		txID:    ev.TxID,
		kind:    string(ev.Kind),
		payload: string(payload),
	}
	if ev.Kind != ir.EventApprovalForAll {
		row.tokenID = sql.NullString{String: tokenColumn(ev.TokenID), Valid: true}
	}
	return row, nil
}

// tokenColumn zero-pads id so that text comparison orders numerically.
func tokenColumn(id ir.TokenID) string {
	return fmt.Sprintf("%020d", uint64(id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent decodes one events row selected as (seq, id, tx_id, payload).
func scanEvent(rs rowScanner) (ir.Event, error) {
	var (
		seq     int64
		id      string
		txID    string
		payload string
	)
	if err := rs.Scan(&seq, &id, &txID, &payload); err != nil {
		return ir.Event{}, fmt.Errorf("scan event: %w", err)
	}
	return ir.DecodeEvent(id, seq, txID, []byte(payload))
}
