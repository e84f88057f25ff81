package store

import (
	"context"
	"fmt"

	"github.com/roach88/nftreg/internal/ir"
)

// Commit applies mutations and appends events in one SQL transaction.
// Implements registry.Backend.
//
// Events are inserted without conflict handling: a duplicate seq or ID
// means two commits claimed the same position in the log, and the whole
// transaction is rolled back.
func (s *Store) Commit(ctx context.Context, mutations []ir.Mutation, events []ir.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	for _, m := range mutations {
		if m.Delete {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, m.Key); err != nil {
				return fmt.Errorf("delete %s: %w", m.Key, err)
			}
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, m.Key, m.Value)
		if err != nil {
			return fmt.Errorf("write %s: %w", m.Key, err)
		}
	}

	for _, ev := range events {
		row, err := encodeEvent(ev)
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (seq, id, tx_id, kind, token_id, payload)
			VALUES (?, ?, ?, ?, ?, ?)
		`, row.seq, row.id, row.txID, row.kind, row.tokenID, row.payload)
		if err != nil {
			return fmt.Errorf("write event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
