package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/nftreg/internal/ir"
)

// Code categorizes registry failures.
type Code string

const (
	// CodeTokenNotFound indicates the token ID has no ownership entry.
	CodeTokenNotFound Code = "TOKEN_NOT_FOUND"

	// CodeUnauthorized indicates the actor lacks owner, approval, operator or
	// minter rights for the action.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeInvalidRecipient indicates the null identity was given where a real
	// recipient is required.
	CodeInvalidRecipient Code = "INVALID_RECIPIENT"

	// CodeOwnerMismatch indicates the caller-supplied from is not the owner.
	CodeOwnerMismatch Code = "OWNER_MISMATCH"

	// CodeSelfApprovalRejected indicates an identity tried to become its own operator.
	CodeSelfApprovalRejected Code = "SELF_APPROVAL_REJECTED"

	// CodeReceiverRejected indicates the receiver failed or did not acknowledge.
	CodeReceiverRejected Code = "RECEIVER_REJECTED"

	// CodeSupplyExhausted indicates the token ID counter would overflow.
	CodeSupplyExhausted Code = "SUPPLY_EXHAUSTED"

	// CodeInvalidOwner indicates a balance query for the null identity.
	CodeInvalidOwner Code = "INVALID_OWNER"

	// CodeReentrantCall indicates a mutating Registry method was called with
	// the context of an operation that is still running on that Registry.
	CodeReentrantCall Code = "REENTRANT_CALL"

	// CodeNotDeployed indicates Open found no registry in the backend.
	CodeNotDeployed Code = "NOT_DEPLOYED"

	// CodeAlreadyDeployed indicates Deploy found an existing registry.
	CodeAlreadyDeployed Code = "ALREADY_DEPLOYED"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrTokenNotFound        = &Error{Code: CodeTokenNotFound}
	ErrUnauthorized         = &Error{Code: CodeUnauthorized}
	ErrInvalidRecipient     = &Error{Code: CodeInvalidRecipient}
	ErrOwnerMismatch        = &Error{Code: CodeOwnerMismatch}
	ErrSelfApprovalRejected = &Error{Code: CodeSelfApprovalRejected}
	ErrReceiverRejected     = &Error{Code: CodeReceiverRejected}
	ErrSupplyExhausted      = &Error{Code: CodeSupplyExhausted}
	ErrInvalidOwner         = &Error{Code: CodeInvalidOwner}
	ErrReentrantCall        = &Error{Code: CodeReentrantCall}
	ErrNotDeployed          = &Error{Code: CodeNotDeployed}
	ErrAlreadyDeployed      = &Error{Code: CodeAlreadyDeployed}
)

// Error is a rejected registry operation.
//
// A rejected operation never leaves a mutation or notification behind.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Op is the operation that failed (see the Op constants).
	Op string

	// Message is a human-readable description.
	Message string

	// TokenID is the token involved, if any.
	TokenID ir.TokenID

	// Identity is the identity involved, if any.
	Identity ir.Identity

	// Err is the underlying cause, if any (receiver failures).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a registry error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the outermost registry error in err's chain,
// or the empty code if there is none.
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsRejection reports whether err is a registry error, as opposed to an
// infrastructure failure such as a backend write error.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}

func tokenNotFound(op string, id ir.TokenID) *Error {
	return &Error{
		Code:    CodeTokenNotFound,
		Op:      op,
		Message: fmt.Sprintf("token %d does not exist", id),
		TokenID: id,
	}
}

func unauthorized(op string, actor ir.Identity, id ir.TokenID) *Error {
	return &Error{
		Code:     CodeUnauthorized,
		Op:       op,
		Message:  fmt.Sprintf("%s may not act on token %d", actor, id),
		TokenID:  id,
		Identity: actor,
	}
}

func notMinter(op string, caller ir.Identity) *Error {
	return &Error{
		Code:     CodeUnauthorized,
		Op:       op,
		Message:  fmt.Sprintf("%s is not the minter", caller),
		Identity: caller,
	}
}

func invalidRecipient(op string, id ir.TokenID) *Error {
	return &Error{
		Code:    CodeInvalidRecipient,
		Op:      op,
		Message: "recipient is the null identity",
		TokenID: id,
	}
}
