package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/nftreg/internal/ir"
)

// OperatorApproval is one granted operator entry.
type OperatorApproval struct {
	Owner    ir.Identity `json:"owner"`
	Operator ir.Identity `json:"operator"`
}

// Snapshot is a detached copy of the registry state.
type Snapshot struct {
	Minter    ir.Identity                `json:"minter"`
	BaseURI   string                     `json:"base_uri"`
	NextID    uint64                     `json:"next_id"`
	Minted    uint64                     `json:"minted"`
	Burned    uint64                     `json:"burned"`
	Owners    map[ir.TokenID]ir.Identity `json:"owners"`
	Balances  map[ir.Identity]uint64     `json:"balances"`
	Approvals map[ir.TokenID]ir.Identity `json:"approvals"`
	Operators []OperatorApproval         `json:"operators"`
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st.snapshot()
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Minter:    s.minter,
		BaseURI:   s.baseURI,
		NextID:    s.nextID,
		Minted:    s.minted,
		Burned:    s.burned,
		Owners:    make(map[ir.TokenID]ir.Identity, len(s.owners)),
		Balances:  make(map[ir.Identity]uint64, len(s.balances)),
		Approvals: make(map[ir.TokenID]ir.Identity, len(s.approvals)),
		Operators: make([]OperatorApproval, 0, len(s.operators)),
	}
	for id, owner := range s.owners {
		snap.Owners[id] = owner
	}
	for who, n := range s.balances {
		snap.Balances[who] = n
	}
	for id, approved := range s.approvals {
		snap.Approvals[id] = approved
	}
	for p := range s.operators {
		snap.Operators = append(snap.Operators, OperatorApproval{Owner: p.Owner, Operator: p.Operator})
	}
	sort.Slice(snap.Operators, func(i, j int) bool {
		a, b := snap.Operators[i], snap.Operators[j]
		if a.Owner != b.Owner {
			return a.Owner.String() < b.Owner.String()
		}
		return a.Operator.String() < b.Operator.String()
	})
	return snap
}

// Replay folds an event log into the state it describes.
//
// Minter and metadata base changes emit no events, so the returned snapshot
// leaves Minter and BaseURI empty. Every event is checked against the state
// built so far; an event that could not have been emitted by a valid
// operation is an error.
func Replay(events []ir.Event) (Snapshot, error) {
	st := newState(ir.Null, "")
	var lastSeq int64

	for _, ev := range events {
		if ev.Seq <= lastSeq {
			return Snapshot{}, fmt.Errorf("event %d: seq not increasing (previous %d)", ev.Seq, lastSeq)
		}
		lastSeq = ev.Seq

		if err := st.replayEvent(ev); err != nil {
			return Snapshot{}, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
	}
	return st.snapshot(), nil
}

func (s *state) replayEvent(ev ir.Event) error {
	switch ev.Kind {
	case ir.EventTransfer:
		return s.replayTransfer(ev)

	case ir.EventApproval:
		owner, ok := s.owners[ev.TokenID]
		if !ok {
			return fmt.Errorf("approval of unknown token %d", ev.TokenID)
		}
		if owner != ev.Owner {
			return fmt.Errorf("approval of token %d by %s, owner is %s", ev.TokenID, ev.Owner, owner)
		}
		if ev.Approved.IsNull() {
			delete(s.approvals, ev.TokenID)
		} else {
			s.approvals[ev.TokenID] = ev.Approved
		}

	case ir.EventApprovalForAll:
		if ev.Owner == ev.Operator {
			return fmt.Errorf("self operator approval by %s", ev.Owner)
		}
		p := operatorPair{Owner: ev.Owner, Operator: ev.Operator}
		if ev.ApprovedAll {
			s.operators[p] = true
		} else {
			delete(s.operators, p)
		}

	default:
		return fmt.Errorf("unknown kind %q", ev.Kind)
	}
	return nil
}

func (s *state) replayTransfer(ev ir.Event) error {
	id := ev.TokenID

	switch {
	case ev.From.IsNull() && ev.To.IsNull():
		return fmt.Errorf("transfer of token %d between null identities", id)

	case ev.From.IsNull():
		if uint64(id) < s.nextID {
			return fmt.Errorf("mint of token %d below next id %d", id, s.nextID)
		}
		s.owners[id] = ev.To
		s.balances[ev.To]++
		s.minted++
		s.nextID = uint64(id) + 1
		return nil
	}

	owner, ok := s.owners[id]
	if !ok {
		return fmt.Errorf("transfer of unknown token %d", id)
	}
	if owner != ev.From {
		return fmt.Errorf("transfer of token %d from %s, owner is %s", id, ev.From, owner)
	}

	delete(s.approvals, id)
	if s.balances[owner]--; s.balances[owner] == 0 {
		delete(s.balances, owner)
	}
	if ev.To.IsNull() {
		delete(s.owners, id)
		s.burned++
		return nil
	}
	s.owners[id] = ev.To
	s.balances[ev.To]++
	return nil
}

// CheckInvariants verifies the structural invariants of a snapshot and
// returns every violation found.
func CheckInvariants(snap Snapshot) error {
	var errs []error

	counts := make(map[ir.Identity]uint64)
	for id, owner := range snap.Owners {
		if owner.IsNull() {
			errs = append(errs, fmt.Errorf("token %d owned by the null identity", id))
		}
		if uint64(id) == 0 || uint64(id) >= snap.NextID {
			errs = append(errs, fmt.Errorf("token %d outside issued range [1, %d)", id, snap.NextID))
		}
		counts[owner]++
	}
	for who, n := range snap.Balances {
		if n == 0 {
			errs = append(errs, fmt.Errorf("zero balance stored for %s", who))
		}
		if counts[who] != n {
			errs = append(errs, fmt.Errorf("balance of %s is %d, owns %d", who, n, counts[who]))
		}
	}
	for who, n := range counts {
		if _, ok := snap.Balances[who]; !ok {
			errs = append(errs, fmt.Errorf("%s owns %d tokens but has no balance", who, n))
		}
	}

	if snap.Burned > snap.Minted {
		errs = append(errs, fmt.Errorf("burned %d exceeds minted %d", snap.Burned, snap.Minted))
	} else if supply := snap.Minted - snap.Burned; supply != uint64(len(snap.Owners)) {
		errs = append(errs, fmt.Errorf("supply %d does not match %d owned tokens", supply, len(snap.Owners)))
	}

	for id, approved := range snap.Approvals {
		if _, ok := snap.Owners[id]; !ok {
			errs = append(errs, fmt.Errorf("approval for nonexistent token %d", id))
		}
		if approved.IsNull() {
			errs = append(errs, fmt.Errorf("null approval stored for token %d", id))
		}
	}
	for _, op := range snap.Operators {
		if op.Owner == op.Operator {
			errs = append(errs, fmt.Errorf("%s is its own operator", op.Owner))
		}
	}

	return errors.Join(errs...)
}
