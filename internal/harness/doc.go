// Package harness runs registry conformance scenarios.
//
// A scenario deploys a fresh registry on an in-memory backend, executes a
// flow of operations with expected outcomes, and evaluates assertions
// against the final state, the committed event log and the mock receivers.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	minter: deployer
//	base_uri: "https://example.com/api/creature/"
//	receivers:
//	  vault: {}
//	  broken: { fail: true }
//	setup:
//	  - op: mint
//	    caller: deployer
//	    args: { to: alice }
//	flow:
//	  - op: transfer_from
//	    caller: bob
//	    args: { from: alice, to: bob, token_id: 1 }
//	    expect:
//	      error: UNAUTHORIZED
//	assertions:
//	  - type: owner_of
//	    token_id: 1
//	    expect: alice
//	  - type: event_contains
//	    kind: Transfer
//	    fields: { from: null, to: alice, token_id: 1 }
//
// Identities are written as account names. Any name other than "null"
// denotes a distinct deterministic identity; 0x-prefixed hex identities are
// accepted too.
//
// # Assertion Types
//
//   - owner_of, get_approved, token_uri: read token_id, compare or expect error
//   - balance_of: read owner
//   - is_approved_for_all: read owner and operator
//   - total_supply, minter: registry-wide reads
//   - event_contains: a committed event of kind with matching fields exists
//   - event_count: number of committed events, optionally of one kind
//   - received: calls recorded by a mock receiver
//   - invariants: structural invariants hold and the event log replays to
//     the final state
//
// # Deterministic Testing
//
// Transaction IDs come from testutil.SequentialTxIDs and sequence numbers
// from a fresh clock, so traces are identical across runs and can be
// compared against golden files.
package harness
