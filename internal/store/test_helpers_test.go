package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/nftreg/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEvent creates a stamped Transfer event.
func createTestEvent(seq int64, txID string, from, to ir.Identity, id ir.TokenID) ir.Event {
	ev := ir.Event{
		Seq:     seq,
		TxID:    txID,
		Kind:    ir.EventTransfer,
		From:    from,
		To:      to,
		TokenID: id,
	}
	ev.ID = ir.MustEventID(ev)
	return ev
}

var (
	alice = ir.NamedIdentity("alice")
	bob   = ir.NamedIdentity("bob")
)
