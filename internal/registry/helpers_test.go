package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/memstore"
	"github.com/roach88/nftreg/internal/testutil"
)

var (
	minter = testutil.Account(0)
	acc1   = testutil.Account(1)
	acc2   = testutil.Account(2)
	acc3   = testutil.Account(3)
)

// eventLog collects observed events.
type eventLog struct {
	mu     sync.Mutex
	events []ir.Event
}

func (l *eventLog) Notify(ev ir.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) all() []ir.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ir.Event(nil), l.events...)
}

// since returns the events observed after the first n.
func (l *eventLog) since(n int) []ir.Event {
	all := l.all()
	return all[n:]
}

type fixture struct {
	reg   *Registry
	store *memstore.Store
	log   *eventLog
	ctx   context.Context
}

// newFixture deploys a registry owned by minter on a fresh memstore.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		log:   &eventLog{},
		ctx:   context.Background(),
	}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTxIDGenerator(testutil.NewSequentialTxIDs("tx")),
		WithObserver(f.log),
	}
	reg, err := Deploy(f.ctx, f.store, minter, append(base, opts...)...)
	require.NoError(t, err)
	f.reg = reg
	return f
}

// mint mints one token per recipient and returns their IDs.
func (f *fixture) mint(t *testing.T, to ...ir.Identity) []ir.TokenID {
	t.Helper()
	ids := make([]ir.TokenID, 0, len(to))
	for _, who := range to {
		id, err := f.reg.Mint(f.ctx, minter, who)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

// requireConsistent checks the structural invariants and that the backend
// holds exactly the in-memory state.
func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	snap := f.reg.Snapshot()
	require.NoError(t, CheckInvariants(snap))

	reopened, err := Open(f.ctx, f.store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	require.Equal(t, snap, reopened.Snapshot(), "backend diverged from memory")
}

func transferEvent(from, to ir.Identity, id ir.TokenID) ir.Event {
	return ir.Event{Kind: ir.EventTransfer, From: from, To: to, TokenID: id}
}

// payloads strips the stamping fields so events compare by content.
func payloads(events []ir.Event) []ir.Event {
	out := make([]ir.Event, len(events))
	for i, ev := range events {
		ev.ID, ev.Seq, ev.TxID = "", 0, ""
		out[i] = ev
	}
	return out
}

// within runs fn and fails the test if it does not return in time, which
// catches a registry lock left held.
func within(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("call blocked: registry lock still held")
	}
}
