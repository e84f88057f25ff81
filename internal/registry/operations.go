package registry

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/nftreg/internal/ir"
)

// The operation bodies below run inside a txn and never clean up after
// themselves: a failure is unwound by the caller's guard.

func (t *txn) mint(caller, to ir.Identity) (ir.TokenID, error) {
	if caller != t.st.minter {
		return 0, notMinter(OpMint, caller)
	}
	if to.IsNull() {
		return 0, invalidRecipient(OpMint, 0)
	}
	next := t.st.nextID
	if next == math.MaxUint64 {
		return 0, &Error{
			Code:    CodeSupplyExhausted,
			Op:      OpMint,
			Message: "token id counter would overflow",
		}
	}

	id := ir.TokenID(next)
	t.setCounter(keyNextID, next+1)
	t.setOwner(id, to)
	t.setBalance(to, t.st.balances[to]+1)
	t.setCounter(keyMinted, t.st.minted+1)
	t.emit(ir.Event{Kind: ir.EventTransfer, From: ir.Null, To: to, TokenID: id})
	return id, nil
}

func (t *txn) burn(caller ir.Identity, id ir.TokenID) error {
	owner, err := t.st.ownerOf(OpBurn, id)
	if err != nil {
		return err
	}
	if !t.st.authorized(caller, id, owner) {
		return unauthorized(OpBurn, caller, id)
	}

	if _, ok := t.st.approvals[id]; ok {
		t.setApproval(id, ir.Null)
	}
	t.setOwner(id, ir.Null)
	t.setBalance(owner, t.st.balances[owner]-1)
	t.setCounter(keyBurned, t.st.burned+1)
	t.emit(ir.Event{Kind: ir.EventTransfer, From: owner, To: ir.Null, TokenID: id})
	return nil
}

// approve is restricted to the literal owner; operators may not set
// single-token approvals.
func (t *txn) approve(caller, approved ir.Identity, id ir.TokenID) error {
	owner, err := t.st.ownerOf(OpApprove, id)
	if err != nil {
		return err
	}
	if caller != owner {
		return unauthorized(OpApprove, caller, id)
	}

	t.setApproval(id, approved)
	t.emit(ir.Event{Kind: ir.EventApproval, Owner: owner, Approved: approved, TokenID: id})
	return nil
}

func (t *txn) setApprovalForAll(caller, operator ir.Identity, approved bool) error {
	if operator == caller {
		return &Error{
			Code:     CodeSelfApprovalRejected,
			Op:       OpSetApprovalForAll,
			Message:  "an identity cannot be its own operator",
			Identity: caller,
		}
	}

	t.setOperator(operatorPair{Owner: caller, Operator: operator}, approved)
	t.emit(ir.Event{Kind: ir.EventApprovalForAll, Owner: caller, Operator: operator, ApprovedAll: approved})
	return nil
}

// transferFrom checks, in order: existence, owner match, recipient, authority.
func (t *txn) transferFrom(op string, caller, from, to ir.Identity, id ir.TokenID) error {
	owner, err := t.st.ownerOf(op, id)
	if err != nil {
		return err
	}
	if owner != from {
		return &Error{
			Code:     CodeOwnerMismatch,
			Op:       op,
			Message:  fmt.Sprintf("token %d is not owned by %s", id, from),
			TokenID:  id,
			Identity: from,
		}
	}
	if to.IsNull() {
		return invalidRecipient(op, id)
	}
	if !t.st.authorized(caller, id, owner) {
		return unauthorized(op, caller, id)
	}

	if _, ok := t.st.approvals[id]; ok {
		t.setApproval(id, ir.Null)
	}
	t.setOwner(id, to)
	t.setBalance(from, t.st.balances[from]-1)
	t.setBalance(to, t.st.balances[to]+1)
	t.emit(ir.Event{Kind: ir.EventTransfer, From: from, To: to, TokenID: id})
	return nil
}

// safeTransferFrom moves the token first so a reentrant receiver sees the
// post-transfer state, then requires the receiver's acknowledgment.
func (t *txn) safeTransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID, data []byte) error {
	if err := t.transferFrom(OpSafeTransferFrom, caller, from, to, id); err != nil {
		return err
	}
	if t.receivers == nil {
		return nil
	}
	rcv, ok := t.receivers.Receiver(to)
	if !ok {
		return nil
	}

	ack, err := callReceiver(ctx, rcv, t, caller, from, id, data)
	if err != nil {
		return &Error{
			Code:     CodeReceiverRejected,
			Op:       OpSafeTransferFrom,
			Message:  "receiver failed",
			TokenID:  id,
			Identity: to,
			Err:      err,
		}
	}
	if ack != ReceivedAck {
		return &Error{
			Code:     CodeReceiverRejected,
			Op:       OpSafeTransferFrom,
			Message:  fmt.Sprintf("receiver returned %s, want %s", ack, ReceivedAck),
			TokenID:  id,
			Identity: to,
		}
	}
	return nil
}

// callReceiver invokes rcv, turning a panic into an error so the transfer
// is unwound like any other receiver failure.
func callReceiver(ctx context.Context, rcv Receiver, l Ledger, operator, from ir.Identity, id ir.TokenID, data []byte) (ack Ack, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("receiver panicked: %v", p)
		}
	}()
	return rcv.OnTokenReceived(ctx, l, operator, from, id, data)
}

func (t *txn) setBaseURIAs(caller ir.Identity, uri string) error {
	if caller != t.st.minter {
		return notMinter(OpSetBaseURI, caller)
	}
	t.setBaseURI(uri)
	return nil
}

// transferMinter rejects the null identity as the new minter.
func (t *txn) transferMinter(caller, newMinter ir.Identity) error {
	if caller != t.st.minter {
		return notMinter(OpTransferMinter, caller)
	}
	if newMinter.IsNull() {
		return &Error{
			Code:    CodeInvalidRecipient,
			Op:      OpTransferMinter,
			Message: "new minter is the null identity",
		}
	}
	t.setMinter(newMinter)
	return nil
}
