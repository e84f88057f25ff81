package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/nftreg/internal/ir"
)

// Registry is the ownership registry aggregate.
//
// Thread-safety: all methods are safe for concurrent use. Mutations are
// serialized by one exclusive lock held for the whole operation.
type Registry struct {
	mu sync.RWMutex
	st *state

	// notifyMu guards pending and dispatching. Events are queued while mu
	// is held, so the queue is in commit order.
	notifyMu    sync.Mutex
	pending     []ir.Event
	dispatching bool

	clock     *Clock
	backend   Backend
	receivers ReceiverResolver
	observers []Observer
	recorder  Recorder
	txIDs     TxIDGenerator
	logger    *slog.Logger
}

// New creates an in-memory registry with the given minter.
// Construction leaves every table empty, supply at 0 and nextID at 1.
func New(minter ir.Identity, opts ...Option) (*Registry, error) {
	if minter.IsNull() {
		return nil, &Error{
			Code:    CodeInvalidRecipient,
			Op:      OpDeploy,
			Message: "minter is the null identity",
		}
	}
	o := buildOptions(opts)
	return newRegistry(newState(minter, o.baseURI), NewClock(), nil, o), nil
}

func newRegistry(st *state, clock *Clock, b Backend, o options) *Registry {
	return &Registry{
		st:        st,
		clock:     clock,
		backend:   b,
		receivers: o.receivers,
		observers: o.observers,
		recorder:  o.recorder,
		txIDs:     o.txIDs,
		logger:    o.logger,
	}
}

// operationKey marks the context handed to code running inside an
// operation, such as a Receiver.
type operationKey struct{}

// apply runs fn as one indivisible operation: under the write lock, with
// every change journaled, unwound on failure or panic and committed on
// success. Observers are notified after the lock is released.
func (r *Registry) apply(ctx context.Context, op string, fn func(context.Context, *txn) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if active, _ := ctx.Value(operationKey{}).(*Registry); active == r {
		return &Error{
			Code:    CodeReentrantCall,
			Op:      op,
			Message: "registry called from inside its own operation; use the Ledger passed to the receiver",
		}
	}
	ctx = context.WithValue(ctx, operationKey{}, r)

	var events []ir.Event
	var supply uint64
	err := func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		t := &txn{st: r.st, j: newJournal(), receivers: r.receivers}
		err := t.guarded(func() error {
			if err := fn(ctx, t); err != nil {
				return err
			}
			var err error
			events, err = r.commit(ctx, op, t)
			return err
		})
		supply = r.st.totalSupply()
		if err == nil {
			r.enqueue(events)
		}
		return err
	}()

	r.recorder.ObserveOperation(op, outcome(err))
	if err != nil {
		r.logger.Debug("operation rejected", "op", op, "error", err)
		return err
	}
	r.recorder.SetSupply(supply)
	r.logger.Debug("operation committed", "op", op, "events", len(events))

	r.dispatch()
	return nil
}

// enqueue queues committed events for the observers. Callers hold mu.
func (r *Registry) enqueue(events []ir.Event) {
	if len(events) == 0 || len(r.observers) == 0 {
		return
	}
	r.notifyMu.Lock()
	r.pending = append(r.pending, events...)
	r.notifyMu.Unlock()
}

// dispatch delivers queued events until the queue is empty. Only one caller
// dispatches at a time; a caller that finds a dispatch running leaves its
// events to it, which keeps delivery in commit order and lets an observer
// run registry operations without deadlocking.
func (r *Registry) dispatch() {
	r.notifyMu.Lock()
	if r.dispatching {
		r.notifyMu.Unlock()
		return
	}
	r.dispatching = true
	r.notifyMu.Unlock()

	drained := false
	defer func() {
		if !drained {
			r.notifyMu.Lock()
			r.dispatching = false
			r.notifyMu.Unlock()
		}
	}()

	for {
		r.notifyMu.Lock()
		if len(r.pending) == 0 {
			r.pending = nil
			r.dispatching = false
			r.notifyMu.Unlock()
			drained = true
			return
		}
		ev := r.pending[0]
		r.pending = r.pending[1:]
		r.notifyMu.Unlock()

		for _, obs := range r.observers {
			obs.Notify(ev)
		}
	}
}

// commit stamps the buffered events and writes them, together with every
// dirty key, to the backend in one atomic call. On failure the sequence
// numbers are released; the caller unwinds the state.
func (r *Registry) commit(ctx context.Context, op string, t *txn) ([]ir.Event, error) {
	txID := r.txIDs.Generate()
	start := r.clock.Current()

	events := make([]ir.Event, len(t.events))
	for i, ev := range t.events {
		ev.Seq = r.clock.Next()
		ev.TxID = txID
		id, err := ir.EventID(ev)
		if err != nil {
			r.clock.rewind(start)
			return nil, fmt.Errorf("%s: stamp event: %w", op, err)
		}
		ev.ID = id
		events[i] = ev
	}

	if r.backend == nil {
		return events, nil
	}

	muts, err := t.mutations()
	if err != nil {
		r.clock.rewind(start)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := r.backend.Commit(ctx, muts, events); err != nil {
		r.clock.rewind(start)
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return events, nil
}

// Mint creates a new token owned by to. Only the minter may mint.
func (r *Registry) Mint(ctx context.Context, caller, to ir.Identity) (ir.TokenID, error) {
	var id ir.TokenID
	err := r.apply(ctx, OpMint, func(ctx context.Context, t *txn) error {
		var err error
		id, err = t.mint(caller, to)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Burn destroys id. The reported Transfer sender is the prior owner, not
// the caller.
func (r *Registry) Burn(ctx context.Context, caller ir.Identity, id ir.TokenID) error {
	return r.apply(ctx, OpBurn, func(ctx context.Context, t *txn) error {
		return t.burn(caller, id)
	})
}

// Approve sets (or, with the null identity, clears) the single-token
// approval of id. Only the owner may call it.
func (r *Registry) Approve(ctx context.Context, caller, approved ir.Identity, id ir.TokenID) error {
	return r.apply(ctx, OpApprove, func(ctx context.Context, t *txn) error {
		return t.approve(caller, approved, id)
	})
}

// SetApprovalForAll grants or revokes operator rights over all of caller's
// tokens.
func (r *Registry) SetApprovalForAll(ctx context.Context, caller, operator ir.Identity, approved bool) error {
	return r.apply(ctx, OpSetApprovalForAll, func(ctx context.Context, t *txn) error {
		return t.setApprovalForAll(caller, operator, approved)
	})
}

// TransferFrom moves id from from to to.
func (r *Registry) TransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID) error {
	return r.apply(ctx, OpTransferFrom, func(ctx context.Context, t *txn) error {
		return t.transferFrom(OpTransferFrom, caller, from, to, id)
	})
}

// SafeTransferFrom is TransferFrom followed by the recipient's
// acknowledgment when it exposes a Receiver.
func (r *Registry) SafeTransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID, data []byte) error {
	return r.apply(ctx, OpSafeTransferFrom, func(ctx context.Context, t *txn) error {
		return t.safeTransferFrom(ctx, caller, from, to, id, data)
	})
}

// SetBaseURI replaces the metadata base. Only the minter may call it.
func (r *Registry) SetBaseURI(ctx context.Context, caller ir.Identity, uri string) error {
	return r.apply(ctx, OpSetBaseURI, func(ctx context.Context, t *txn) error {
		return t.setBaseURIAs(caller, uri)
	})
}

// TransferMinter hands the minter role to newMinter.
func (r *Registry) TransferMinter(ctx context.Context, caller, newMinter ir.Identity) error {
	return r.apply(ctx, OpTransferMinter, func(ctx context.Context, t *txn) error {
		return t.transferMinter(caller, newMinter)
	})
}

// OwnerOf returns the owner of id.
func (r *Registry) OwnerOf(id ir.TokenID) (ir.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.ownerOf(OpOwnerOf, id)
}

// BalanceOf returns the number of tokens owned by owner.
func (r *Registry) BalanceOf(owner ir.Identity) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.balanceOf(owner)
}

// GetApproved returns the approved identity of id, or the null identity.
func (r *Registry) GetApproved(id ir.TokenID) (ir.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.getApproved(id)
}

// IsApprovedForAll reports whether operator may act on all of owner's tokens.
func (r *Registry) IsApprovedForAll(owner, operator ir.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.isApprovedForAll(owner, operator)
}

// Authorized reports whether actor is the owner of id, its approved
// identity, or an operator of its owner.
func (r *Registry) Authorized(actor ir.Identity, id ir.TokenID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.isAuthorized(actor, id)
}

// TotalSupply returns minted minus burned.
func (r *Registry) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.totalSupply()
}

// TokenURI returns the metadata base followed by the decimal token ID.
func (r *Registry) TokenURI(id ir.TokenID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.tokenURI(id)
}

// Minter returns the current minter.
func (r *Registry) Minter() ir.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.minter
}

// BaseURI returns the current metadata base.
func (r *Registry) BaseURI() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.baseURI
}

// SupportsInterface reports whether iid is an implemented capability.
func (r *Registry) SupportsInterface(iid ir.InterfaceID) bool {
	return SupportsInterface(iid)
}

// LastSeq returns the seq of the most recently committed event.
func (r *Registry) LastSeq() int64 {
	return r.clock.Current()
}
