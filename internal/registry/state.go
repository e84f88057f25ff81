package registry

import (
	"github.com/roach88/nftreg/internal/ir"
)

// operatorPair keys the operator approval table.
type operatorPair struct {
	Owner    ir.Identity
	Operator ir.Identity
}

// state holds every table of one registry.
//
// Invariants:
//   - owners never maps to the null identity; absence means nonexistence
//   - balances[i] equals the number of owners entries mapping to i, and
//     zero balances are not stored
//   - approvals only holds existing tokens and never a null approval
//   - operators only holds true entries
//   - minted - burned == len(owners), and every ID in owners is < nextID
type state struct {
	owners    map[ir.TokenID]ir.Identity
	balances  map[ir.Identity]uint64
	approvals map[ir.TokenID]ir.Identity
	operators map[operatorPair]bool

	minter  ir.Identity
	baseURI string

	nextID uint64
	minted uint64
	burned uint64
}

func newState(minter ir.Identity, baseURI string) *state {
	return &state{
		owners:    make(map[ir.TokenID]ir.Identity),
		balances:  make(map[ir.Identity]uint64),
		approvals: make(map[ir.TokenID]ir.Identity),
		operators: make(map[operatorPair]bool),
		minter:    minter,
		baseURI:   baseURI,
		nextID:    1,
	}
}

// counter returns the field backing one of the counter keys.
func (s *state) counter(key string) *uint64 {
	switch key {
	case keyNextID:
		return &s.nextID
	case keyMinted:
		return &s.minted
	case keyBurned:
		return &s.burned
	}
	panic("registry: unknown counter key " + key)
}

func (s *state) totalSupply() uint64 {
	return s.minted - s.burned
}

// authorized implements the authorization resolver for an existing token:
// the owner, the approved identity, or an operator of the owner.
func (s *state) authorized(actor ir.Identity, id ir.TokenID, owner ir.Identity) bool {
	if actor == owner {
		return true
	}
	if approved, ok := s.approvals[id]; ok && approved == actor {
		return true
	}
	return s.operators[operatorPair{Owner: owner, Operator: actor}]
}
