package registry

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/roach88/nftreg/internal/ir"
)

// Ack is the 4-byte value a Receiver returns from OnTokenReceived.
type Ack [4]byte

// ReceivedAck is the only acknowledgment that accepts a safe transfer.
var ReceivedAck = Ack{0x15, 0x0b, 0x7a, 0x02}

// String returns the 0x-prefixed hex form.
func (a Ack) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// ParseAck parses "0x" followed by 8 hex digits.
func ParseAck(s string) (Ack, error) {
	iid, err := ir.ParseInterfaceID(s)
	if err != nil {
		return Ack{}, err
	}
	return Ack(iid), nil
}

// Receiver is the capability an identity may expose to accept safe transfers.
//
// OnTokenReceived is called after ownership has moved to the receiver, inside
// the transfer's atomic boundary. Returning an error or any Ack other than
// ReceivedAck unwinds the whole transfer, including everything the receiver
// did through l. A panic in OnTokenReceived is recovered and unwinds the
// transfer the same way.
//
// The registry's lock is held for the whole call, so every read or write
// must go through l. A mutating call on the *Registry itself fails with
// REENTRANT_CALL when given ctx; a read on the *Registry deadlocks.
type Receiver interface {
	OnTokenReceived(ctx context.Context, l Ledger, operator, from ir.Identity, id ir.TokenID, data []byte) (Ack, error)
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(ctx context.Context, l Ledger, operator, from ir.Identity, id ir.TokenID, data []byte) (Ack, error)

// OnTokenReceived calls f.
func (f ReceiverFunc) OnTokenReceived(ctx context.Context, l Ledger, operator, from ir.Identity, id ir.TokenID, data []byte) (Ack, error) {
	return f(ctx, l, operator, from, id, data)
}

// ReceiverResolver looks up the Receiver exposed by an identity.
// Identities without one are plain recipients.
type ReceiverResolver interface {
	Receiver(id ir.Identity) (Receiver, bool)
}

// Receivers is a static ReceiverResolver.
type Receivers map[ir.Identity]Receiver

// Receiver implements ReceiverResolver.
func (rs Receivers) Receiver(id ir.Identity) (Receiver, bool) {
	rcv, ok := rs[id]
	return rcv, ok
}

// ErrReceiverFailed is returned by a StaticReceiver configured to fail.
var ErrReceiverFailed = errors.New("receiver failed")

// ReceivedCall is one recorded OnTokenReceived invocation.
type ReceivedCall struct {
	Operator ir.Identity `json:"operator"`
	From     ir.Identity `json:"from"`
	TokenID  ir.TokenID  `json:"token_id"`
	Data     []byte      `json:"data"`
}

// StaticReceiver answers every safe transfer with a fixed Ack, or fails when
// Fail is set. It records each invocation, including ones whose transfer was
// later unwound.
type StaticReceiver struct {
	Ack  Ack
	Fail bool

	mu    sync.Mutex
	calls []ReceivedCall
}

// NewAcceptingReceiver returns a StaticReceiver that acknowledges every transfer.
func NewAcceptingReceiver() *StaticReceiver {
	return &StaticReceiver{Ack: ReceivedAck}
}

// OnTokenReceived implements Receiver.
func (s *StaticReceiver) OnTokenReceived(_ context.Context, _ Ledger, operator, from ir.Identity, id ir.TokenID, data []byte) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, ReceivedCall{
		Operator: operator,
		From:     from,
		TokenID:  id,
		Data:     append([]byte(nil), data...),
	})
	if s.Fail {
		return Ack{}, ErrReceiverFailed
	}
	return s.Ack, nil
}

// Calls returns a copy of the recorded invocations in order.
func (s *StaticReceiver) Calls() []ReceivedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ReceivedCall(nil), s.calls...)
}
