package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/nftreg/internal/ir"
)

// Store is an in-memory registry backend.
//
// The zero value is not usable; create one with New.
type Store struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	events []ir.Event

	// failNext, when set, is returned by the next Commit, which then
	// writes nothing.
	failNext error
}

// New creates an empty store.
func New() *Store {
	return &Store{kv: make(map[string][]byte)}
}

// FailNextCommit makes the next Commit fail with err without writing.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Scan calls fn for every key starting with prefix, in key order.
// Values are copies.
func (s *Store) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.kv))
	for k := range s.kv {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = append([]byte(nil), s.kv[k]...)
	}
	s.mu.RUnlock()

	for i, k := range keys {
		if err := fn(k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Commit applies mutations and appends events atomically.
func (s *Store) Commit(ctx context.Context, mutations []ir.Mutation, events []ir.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}

	last := s.lastSeqLocked()
	for _, ev := range events {
		if ev.Seq <= last {
			return fmt.Errorf("event seq %d not after %d", ev.Seq, last)
		}
		last = ev.Seq
	}

	for _, m := range mutations {
		if m.Delete {
			delete(s.kv, m.Key)
			continue
		}
		s.kv[m.Key] = append([]byte(nil), m.Value...)
	}
	s.events = append(s.events, events...)
	return nil
}

// LastSeq returns the highest committed event seq, or 0.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeqLocked(), nil
}

func (s *Store) lastSeqLocked() int64 {
	if len(s.events) == 0 {
		return 0
	}
	return s.events[len(s.events)-1].Seq
}

// ReadEvents returns the events matching filter, ordered by seq.
func (s *Store) ReadEvents(ctx context.Context, filter ir.EventFilter) ([]ir.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []ir.Event{}
	for _, ev := range s.events {
		if !filter.Match(ev) {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kv)
}
