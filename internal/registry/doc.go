// Package registry implements the non-fungible asset ownership registry.
//
// A Registry is the single owned aggregate holding every table the registry
// needs: ownership, balances, single-token approvals, operator approvals, the
// supply counters, the minter and the metadata base. There are no package
// level globals; every operation runs against one Registry value.
//
// Each mutating operation is an indivisible transition:
//
//   - The whole operation runs under one exclusive lock, including the
//     receiver callback of SafeTransferFrom.
//   - Every state change is recorded in a journal. A failing operation
//     reverts the journal and leaves no mutation or notification behind.
//   - A receiver is handed a Ledger bound to the in-progress operation. Reads
//     through it see the post-transfer state, and mutations through it join
//     the operation's atomic boundary. A receiver must never call back into
//     the Registry itself, which would deadlock.
//   - On success the changed keys and the operation's events are written to
//     the Backend in one atomic commit. Observers are notified after the lock
//     is released, in commit order.
//
// Events carry a logical sequence number, a transaction ID shared by every
// event of one operation, and a content-addressed ID (see ir.EventID).
package registry
