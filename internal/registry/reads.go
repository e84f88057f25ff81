package registry

import (
	"github.com/roach88/nftreg/internal/ir"
)

func (s *state) ownerOf(op string, id ir.TokenID) (ir.Identity, error) {
	owner, ok := s.owners[id]
	if !ok {
		return ir.Null, tokenNotFound(op, id)
	}
	return owner, nil
}

func (s *state) balanceOf(owner ir.Identity) (uint64, error) {
	if owner.IsNull() {
		return 0, &Error{
			Code:    CodeInvalidOwner,
			Op:      OpBalanceOf,
			Message: "balance query for the null identity",
		}
	}
	return s.balances[owner], nil
}

// getApproved returns the null identity when the token has no approval.
func (s *state) getApproved(id ir.TokenID) (ir.Identity, error) {
	if _, err := s.ownerOf(OpGetApproved, id); err != nil {
		return ir.Null, err
	}
	return s.approvals[id], nil
}

func (s *state) isApprovedForAll(owner, operator ir.Identity) bool {
	return s.operators[operatorPair{Owner: owner, Operator: operator}]
}

func (s *state) isAuthorized(actor ir.Identity, id ir.TokenID) (bool, error) {
	owner, err := s.ownerOf(OpAuthorized, id)
	if err != nil {
		return false, err
	}
	return s.authorized(actor, id, owner), nil
}

func (s *state) tokenURI(id ir.TokenID) (string, error) {
	if _, err := s.ownerOf(OpTokenURI, id); err != nil {
		return "", err
	}
	return s.baseURI + id.String(), nil
}
