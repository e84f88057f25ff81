package ir

import (
	"encoding/json"
	"fmt"
)

// MarshalPayload returns the canonical JSON form of ev.Payload().
func MarshalPayload(ev Event) ([]byte, error) {
	data, err := MarshalCanonical(ev.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

// eventPayload mirrors the union of all payload shapes.
// Approved is raw because Approval carries an identity and ApprovalForAll a bool.
type eventPayload struct {
	Kind     EventKind       `json:"kind"`
	From     *Identity       `json:"from"`
	To       *Identity       `json:"to"`
	Owner    *Identity       `json:"owner"`
	Operator *Identity       `json:"operator"`
	Approved json.RawMessage `json:"approved"`
	TokenID  uint64          `json:"token_id"`
}

// DecodeEvent rebuilds an Event from its stored columns.
func DecodeEvent(id string, seq int64, txID string, payload []byte) (Event, error) {
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Event{}, fmt.Errorf("decode event %d: %w", seq, err)
	}

	ev := Event{ID: id, Seq: seq, TxID: txID, Kind: p.Kind, TokenID: TokenID(p.TokenID)}
	deref := func(dst *Identity, src *Identity) {
		if src != nil {
			*dst = *src
		}
	}

	switch p.Kind {
	case EventTransfer:
		deref(&ev.From, p.From)
		deref(&ev.To, p.To)
	case EventApproval:
		deref(&ev.Owner, p.Owner)
		if len(p.Approved) > 0 {
			if err := json.Unmarshal(p.Approved, &ev.Approved); err != nil {
				return Event{}, fmt.Errorf("decode event %d: approved: %w", seq, err)
			}
		}
	case EventApprovalForAll:
		deref(&ev.Owner, p.Owner)
		deref(&ev.Operator, p.Operator)
		if len(p.Approved) > 0 {
			if err := json.Unmarshal(p.Approved, &ev.ApprovedAll); err != nil {
				return Event{}, fmt.Errorf("decode event %d: approved: %w", seq, err)
			}
		}
	default:
		return Event{}, fmt.Errorf("decode event %d: unknown kind %q", seq, p.Kind)
	}
	return ev, nil
}
