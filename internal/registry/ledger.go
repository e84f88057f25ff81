package registry

import (
	"context"

	"github.com/roach88/nftreg/internal/ir"
)

// Operation names used in errors, logs and metrics.
const (
	OpMint              = "mint"
	OpBurn              = "burn"
	OpApprove           = "approve"
	OpSetApprovalForAll = "set_approval_for_all"
	OpTransferFrom      = "transfer_from"
	OpSafeTransferFrom  = "safe_transfer_from"
	OpSetBaseURI        = "set_base_uri"
	OpTransferMinter    = "transfer_minter"
	OpOwnerOf           = "owner_of"
	OpBalanceOf         = "balance_of"
	OpGetApproved       = "get_approved"
	OpIsApprovedForAll  = "is_approved_for_all"
	OpTotalSupply       = "total_supply"
	OpTokenURI          = "token_uri"
	OpAuthorized        = "authorized"
	OpMinter            = "minter"
	OpSupportsInterface = "supports_interface"
	OpDeploy            = "deploy"
	OpOpen              = "open"
)

// Ledger is the full operation surface of a registry.
//
// *Registry implements it for callers outside any operation. A Receiver is
// handed a Ledger bound to the in-progress safe transfer: reads observe the
// post-transfer state and mutations join the transfer's atomic boundary.
// Code running inside an operation must use that Ledger, never the
// *Registry (see Receiver).
type Ledger interface {
	Mint(ctx context.Context, caller, to ir.Identity) (ir.TokenID, error)
	Burn(ctx context.Context, caller ir.Identity, id ir.TokenID) error
	Approve(ctx context.Context, caller, approved ir.Identity, id ir.TokenID) error
	SetApprovalForAll(ctx context.Context, caller, operator ir.Identity, approved bool) error
	TransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID) error
	SafeTransferFrom(ctx context.Context, caller, from, to ir.Identity, id ir.TokenID, data []byte) error
	SetBaseURI(ctx context.Context, caller ir.Identity, uri string) error
	TransferMinter(ctx context.Context, caller, newMinter ir.Identity) error

	OwnerOf(id ir.TokenID) (ir.Identity, error)
	BalanceOf(owner ir.Identity) (uint64, error)
	GetApproved(id ir.TokenID) (ir.Identity, error)
	IsApprovedForAll(owner, operator ir.Identity) bool
	Authorized(actor ir.Identity, id ir.TokenID) (bool, error)
	TotalSupply() uint64
	TokenURI(id ir.TokenID) (string, error)
	Minter() ir.Identity
	SupportsInterface(iid ir.InterfaceID) bool
}

// Capability identifiers answered by SupportsInterface. The set is closed.
var (
	InterfaceIntrospection = ir.InterfaceID{0x01, 0xff, 0xc9, 0xa7}
	InterfaceRegistry      = ir.InterfaceID{0x80, 0xac, 0x58, 0xcd}
	InterfaceMetadata      = ir.InterfaceID{0x5b, 0x5e, 0x13, 0x9f}
)

// SupportsInterface reports whether iid is one of the capabilities this
// registry implements. No state is involved.
func SupportsInterface(iid ir.InterfaceID) bool {
	switch iid {
	case InterfaceIntrospection, InterfaceRegistry, InterfaceMetadata:
		return true
	}
	return false
}
