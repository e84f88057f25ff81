package testutil

import (
	"fmt"

	"github.com/roach88/nftreg/internal/ir"
)

// Account returns the i-th test account: the named identity "account-<i>".
// Accounts are stable across runs, so traces that mention them are too.
func Account(i int) ir.Identity {
	return ir.NamedIdentity(fmt.Sprintf("account-%d", i))
}

// Accounts returns the first n test accounts.
func Accounts(n int) []ir.Identity {
	out := make([]ir.Identity, n)
	for i := range out {
		out[i] = Account(i)
	}
	return out
}
