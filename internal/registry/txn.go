package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/nftreg/internal/ir"
)

// txn is one in-progress operation. Every state change goes through its
// setters so it lands in the journal, and every notification is buffered
// until commit.
//
// txn implements Ledger for receivers: each mutating method is guarded by a
// nested snapshot, so a failed nested call leaves the enclosing operation as
// it was.
type txn struct {
	st        *state
	j         *journal
	events    []ir.Event
	receivers ReceiverResolver
}

type txnSnapshot struct {
	journal int
	events  int
}

var (
	_ Ledger = (*txn)(nil)
	_ Ledger = (*Registry)(nil)
)

func (t *txn) snapshot() txnSnapshot {
	return txnSnapshot{journal: t.j.length(), events: len(t.events)}
}

func (t *txn) revertTo(s txnSnapshot) {
	t.j.revert(t.st, s.journal)
	t.events = t.events[:s.events]
}

// guarded runs fn and unwinds everything it did if it fails or panics.
// A panic is re-raised after the unwind.
func (t *txn) guarded(fn func() error) error {
	snap := t.snapshot()
	defer func() {
		if p := recover(); p != nil {
			t.revertTo(snap)
			panic(p)
		}
	}()
	if err := fn(); err != nil {
		t.revertTo(snap)
		return err
	}
	return nil
}

// mutations returns the backend writes for every key this txn touched,
// in key order.
func (t *txn) mutations() ([]ir.Mutation, error) {
	keys := make([]string, 0, len(t.j.dirties))
	for k := range t.j.dirties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	muts := make([]ir.Mutation, 0, len(keys))
	for _, k := range keys {
		value, ok, err := t.st.value(k)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		if !ok {
			muts = append(muts, ir.Mutation{Key: k, Delete: true})
			continue
		}
		muts = append(muts, ir.Mutation{Key: k, Value: value})
	}
	return muts, nil
}

func (t *txn) emit(ev ir.Event) {
	t.events = append(t.events, ev)
}

// Journaled setters. A null identity or zero count removes the entry.

func (t *txn) setOwner(id ir.TokenID, who ir.Identity) {
	prev, existed := t.st.owners[id]
	t.j.append(ownerChange{id: id, prev: prev, existed: existed})
	if who.IsNull() {
		delete(t.st.owners, id)
	} else {
		t.st.owners[id] = who
	}
}

func (t *txn) setApproval(id ir.TokenID, who ir.Identity) {
	prev, existed := t.st.approvals[id]
	t.j.append(approvalChange{id: id, prev: prev, existed: existed})
	if who.IsNull() {
		delete(t.st.approvals, id)
	} else {
		t.st.approvals[id] = who
	}
}

func (t *txn) setBalance(who ir.Identity, n uint64) {
	t.j.append(balanceChange{who: who, prev: t.st.balances[who]})
	if n == 0 {
		delete(t.st.balances, who)
	} else {
		t.st.balances[who] = n
	}
}

func (t *txn) setOperator(p operatorPair, approved bool) {
	t.j.append(operatorChange{pair: p, prev: t.st.operators[p]})
	if approved {
		t.st.operators[p] = true
	} else {
		delete(t.st.operators, p)
	}
}

func (t *txn) setCounter(key string, v uint64) {
	field := t.st.counter(key)
	t.j.append(counterChange{key: key, prev: *field})
	*field = v
}

func (t *txn) setMinter(who ir.Identity) {
	t.j.append(minterChange{prev: t.st.minter})
	t.st.minter = who
}

func (t *txn) setBaseURI(uri string) {
	t.j.append(baseURIChange{prev: t.st.baseURI})
	t.st.baseURI = uri
}

// Ledger implementation for receivers.

func (t *txn) Mint(_ context.Context, caller, to ir.Identity) (ir.TokenID, error) {
	var id ir.TokenID
	err := t.guarded(func() error {
		var err error
		id, err = t.mint(caller, to)
		return err
	})
	return id, err
}

func (t *txn) Burn(_ context.Context, caller ir.Identity, id ir.TokenID) error {
	return t.guarded(func() error { return t.burn(caller, id) })
}

func (t *txn) Approve(_ context.Context, caller, approved ir.Identity, id ir.TokenID) error {
	return t.guarded(func() error { return t.approve(caller, approved, id) })
}

func (t *txn) SetApprovalForAll(_ context.Context, caller, operator ir.Identity, approved bool) error {
	return t.guarded(func() error { return t.setApprovalForAll(caller, operator, approved) })
}

func (t *txn) TransferFrom(_ context.Context, caller, from, to ir.Identity, id ir.TokenID) error {
	return t.guarded(func() error { return t.transferFrom(OpTransferFrom, caller, from, to, id) })
}

func (t *txn) SafeTransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID, data []byte) error {
	return t.guarded(func() error { return t.safeTransferFrom(ctx, caller, from, to, id, data) })
}

func (t *txn) SetBaseURI(_ context.Context, caller ir.Identity, uri string) error {
	return t.guarded(func() error { return t.setBaseURIAs(caller, uri) })
}

func (t *txn) TransferMinter(_ context.Context, caller, newMinter ir.Identity) error {
	return t.guarded(func() error { return t.transferMinter(caller, newMinter) })
}

func (t *txn) OwnerOf(id ir.TokenID) (ir.Identity, error) {
	return t.st.ownerOf(OpOwnerOf, id)
}

func (t *txn) BalanceOf(owner ir.Identity) (uint64, error) {
	return t.st.balanceOf(owner)
}

func (t *txn) GetApproved(id ir.TokenID) (ir.Identity, error) {
	return t.st.getApproved(id)
}

func (t *txn) IsApprovedForAll(owner, operator ir.Identity) bool {
	return t.st.isApprovedForAll(owner, operator)
}

func (t *txn) Authorized(actor ir.Identity, id ir.TokenID) (bool, error) {
	return t.st.isAuthorized(actor, id)
}

func (t *txn) TotalSupply() uint64 {
	return t.st.totalSupply()
}

func (t *txn) TokenURI(id ir.TokenID) (string, error) {
	return t.st.tokenURI(id)
}

func (t *txn) Minter() ir.Identity {
	return t.st.minter
}

func (t *txn) SupportsInterface(iid ir.InterfaceID) bool {
	return SupportsInterface(iid)
}
