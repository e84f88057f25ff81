package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/queryir"
)

type kvPair struct {
	key   string
	value []byte
}

// Scan calls fn for every key starting with prefix, in key order.
// Implements registry.Backend.
//
// Rows are read fully before fn is called, so fn may use the store.
func (s *Store) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	query := `SELECT key, value FROM kv ORDER BY key ASC`
	var args []any
	if prefix != "" {
		query = `SELECT key, value FROM kv WHERE key >= ? AND key < ? ORDER BY key ASC`
		args = []any{prefix, prefixEnd(prefix)}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query kv: %w", err)
	}

	var pairs []kvPair
	for rows.Next() {
		var p kvPair
		if err := rows.Scan(&p.key, &p.value); err != nil {
			rows.Close()
			return fmt.Errorf("scan kv: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate kv: %w", err)
	}
	rows.Close()

	for _, p := range pairs {
		if err := fn(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// prefixEnd returns the smallest string greater than every string starting
// with prefix. Keys are ASCII, so bumping the last byte is enough.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return strings.Repeat("\xff", len(prefix)+1)
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

// LastSeq returns the highest committed event seq, or 0 for an empty log.
// Implements registry.Backend.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}

// ReadEvents returns the events matching filter, ordered by seq.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadEvents(ctx context.Context, filter ir.EventFilter) ([]ir.Event, error) {
	events, err := s.queryEvents(ctx, eventQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// ReadTx returns the events committed by one transaction, ordered by seq.
func (s *Store) ReadTx(ctx context.Context, txID string) ([]ir.Event, error) {
	events, err := s.queryEvents(ctx, txQuery(txID))
	if err != nil {
		return nil, fmt.Errorf("read tx %s: %w", txID, err)
	}
	return events, nil
}

func (s *Store) queryEvents(ctx context.Context, sel queryir.Select) ([]ir.Event, error) {
	query, args, err := compileQuery(sel)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return events, nil
}
