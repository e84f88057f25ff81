package ir

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// TokenID identifies one non-fungible asset. IDs are assigned at mint time
// starting at 1 and are never reused after burn.
type TokenID uint64

// String returns the decimal form used in metadata URIs.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTokenID parses a decimal token ID.
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token id %q: %w", s, err)
	}
	return TokenID(v), nil
}

// InterfaceID is a 4-byte capability identifier used by SupportsInterface.
type InterfaceID [4]byte

// ParseInterfaceID parses "0x" followed by 8 hex digits.
func ParseInterfaceID(s string) (InterfaceID, error) {
	var iid InterfaceID
	raw, err := decodeHex(s)
	if err != nil {
		return iid, fmt.Errorf("interface id %q: %w", s, err)
	}
	if len(raw) != len(iid) {
		return iid, fmt.Errorf("interface id %q: want 4 bytes, got %d", s, len(raw))
	}
	copy(iid[:], raw)
	return iid, nil
}

// MustParseInterfaceID is like ParseInterfaceID but panics on error.
func MustParseInterfaceID(s string) InterfaceID {
	iid, err := ParseInterfaceID(s)
	if err != nil {
		panic(err)
	}
	return iid
}

// String returns the 0x-prefixed hex form.
func (iid InterfaceID) String() string {
	return "0x" + hex.EncodeToString(iid[:])
}

// DecodeHex decodes an optionally 0x-prefixed hex string. The empty string
// and a bare "0x" decode to an empty slice.
func DecodeHex(s string) ([]byte, error) {
	return decodeHex(s)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// EventKind names a notification emitted by the registry.
type EventKind string

const (
	// EventTransfer reports a mint (from null), burn (to null) or ownership move.
	EventTransfer EventKind = "Transfer"

	// EventApproval reports a single-token approval change.
	EventApproval EventKind = "Approval"

	// EventApprovalForAll reports an operator approval toggle.
	EventApprovalForAll EventKind = "ApprovalForAll"
)

// ValidEventKinds lists every kind in emission-table order.
var ValidEventKinds = []EventKind{EventTransfer, EventApproval, EventApprovalForAll}

// Event is a committed notification.
//
// Which identity fields are meaningful depends on Kind:
//   - Transfer: From, To, TokenID
//   - Approval: Owner, Approved, TokenID
//   - ApprovalForAll: Owner, Operator, ApprovedAll
type Event struct {
	ID      string    `json:"id"`    // Content-addressed hash (see EventID)
	Seq     int64     `json:"seq"`   // Logical clock, strictly increasing
	TxID    string    `json:"tx_id"` // Operation that produced the event
	Kind    EventKind `json:"kind"`
	TokenID TokenID   `json:"token_id,omitempty"`

	From     Identity `json:"from"`
	To       Identity `json:"to"`
	Owner    Identity `json:"owner"`
	Approved Identity `json:"approved"`
	Operator Identity `json:"operator"`

	ApprovedAll bool `json:"approved_all"`
}

// Payload returns the kind-specific fields of the event as a canonical map.
// Seq, TxID and ID are not part of the payload.
func (e Event) Payload() map[string]any {
	switch e.Kind {
	case EventTransfer:
		return map[string]any{
			"kind":     string(e.Kind),
			"from":     e.From.String(),
			"to":       e.To.String(),
			"token_id": uint64(e.TokenID),
		}
	case EventApproval:
		return map[string]any{
			"kind":     string(e.Kind),
			"owner":    e.Owner.String(),
			"approved": e.Approved.String(),
			"token_id": uint64(e.TokenID),
		}
	case EventApprovalForAll:
		return map[string]any{
			"kind":     string(e.Kind),
			"owner":    e.Owner.String(),
			"operator": e.Operator.String(),
			"approved": e.ApprovedAll,
		}
	default:
		return map[string]any{"kind": string(e.Kind)}
	}
}

// Mutation is one key/value change staged by a registry commit.
// A Mutation with Delete set removes Key; Value is ignored.
type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}
