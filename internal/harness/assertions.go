package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Trace    []TraceStep // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, step := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %v -> %s\n", i+1, step.Caller, step.Op, step.Args, step.Outcome)
		}
	}
	return buf.String()
}

// evaluateAssertions evaluates all assertions against the final registry.
// Returns a slice of error messages for failed assertions.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) []string {
	var errs []string

	events, err := h.backend.ReadEvents(ctx, ir.EventFilter{})
	if err != nil {
		return []string{fmt.Sprintf("read events: %v", err)}
	}

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertOwnerOf, AssertBalanceOf, AssertGetApproved, AssertTokenURI,
			AssertIsApprovedForAll, AssertTotalSupply, AssertMinter:
			err = h.assertRead(a)
		case AssertEventContains:
			err = h.assertEventContains(events, a)
		case AssertEventCount:
			err = assertEventCount(events, a)
		case AssertReceived:
			err = h.assertReceived(a)
		case AssertInvariants:
			err = h.assertInvariants(events)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}

		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = result.Trace
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertRead runs a read-only query and compares its value or error code.
func (h *Harness) assertRead(a Assertion) error {
	step := Step{Op: a.Type}
	step.Args.TokenID = a.TokenID
	step.Args.Owner = a.Owner
	step.Args.Operator = a.Operator

	value, err := h.execute(context.Background(), step)
	if err != nil && !registry.IsRejection(err) {
		return err
	}

	if a.Error != "" {
		if err == nil {
			return &AssertionError{
				Type:     a.Type,
				Expected: "error " + a.Error,
				Actual:   "value " + display(value),
			}
		}
		if got := string(registry.CodeOf(err)); got != a.Error {
			return &AssertionError{
				Type:     a.Type,
				Expected: "error " + a.Error,
				Actual:   "error " + got,
			}
		}
		return nil
	}

	if err != nil {
		return &AssertionError{
			Type:     a.Type,
			Expected: "value " + display(a.Expect),
			Actual:   "error " + err.Error(),
		}
	}
	if want, got := display(a.Expect), display(value); want != got {
		return &AssertionError{
			Type:     a.Type,
			Expected: want,
			Actual:   got,
		}
	}
	return nil
}

// assertEventContains checks that a committed event of the given kind
// matches every listed field (subset match).
func (h *Harness) assertEventContains(events []ir.Event, a Assertion) error {
	for _, ev := range events {
		if string(ev.Kind) != a.Kind {
			continue
		}
		if matchFields(h.renderEvent(ev), a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s event with %v", a.Kind, a.Fields),
		Actual:   "not found in event log",
	}
}

// assertEventCount checks the number of committed events, optionally of
// one kind.
func assertEventCount(events []ir.Event, a Assertion) error {
	count := 0
	for _, ev := range events {
		if a.Kind == "" || string(ev.Kind) == a.Kind {
			count++
		}
	}
	if count != *a.Count {
		what := "events"
		if a.Kind != "" {
			what = a.Kind + " events"
		}
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s", *a.Count, what),
			Actual:   fmt.Sprintf("%d %s", count, what),
		}
	}
	return nil
}

// assertReceived checks the calls recorded by a mock receiver.
func (h *Harness) assertReceived(a Assertion) error {
	id, err := h.identity(a.Receiver)
	if err != nil {
		return err
	}
	rcv, ok := h.receivers[id]
	if !ok {
		return fmt.Errorf("%s has no receiver", a.Receiver)
	}
	calls := rcv.Calls()

	if a.Count != nil && len(calls) != *a.Count {
		return &AssertionError{
			Type:     AssertReceived,
			Expected: fmt.Sprintf("%d calls to %s", *a.Count, a.Receiver),
			Actual:   fmt.Sprintf("%d calls", len(calls)),
		}
	}
	if a.Calls == nil {
		return nil
	}
	if len(calls) != len(a.Calls) {
		return &AssertionError{
			Type:     AssertReceived,
			Expected: fmt.Sprintf("%d calls to %s", len(a.Calls), a.Receiver),
			Actual:   fmt.Sprintf("%d calls", len(calls)),
		}
	}
	for i, want := range a.Calls {
		got := h.renderCall(calls[i])
		if !matchFields(got, want) {
			return &AssertionError{
				Type:     AssertReceived,
				Expected: fmt.Sprintf("call %d with %v", i, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}
	return nil
}

// assertInvariants checks the structural invariants of the final state and
// that folding the event log reproduces it.
func (h *Harness) assertInvariants(events []ir.Event) error {
	live := h.reg.Snapshot()
	if err := registry.CheckInvariants(live); err != nil {
		return &AssertionError{
			Type:     AssertInvariants,
			Expected: "invariants hold",
			Actual:   err.Error(),
		}
	}

	replayed, err := registry.Replay(events)
	if err != nil {
		return &AssertionError{
			Type:     AssertInvariants,
			Expected: "event log replays",
			Actual:   err.Error(),
		}
	}
	if diff := cmp.Diff(live, replayed, SnapshotCompareOptions()...); diff != "" {
		return &AssertionError{
			Type:     AssertInvariants,
			Expected: "replayed state equals final state",
			Actual:   "diff (-final +replayed):\n" + diff,
		}
	}
	return nil
}

// SnapshotCompareOptions compares a live snapshot with a replayed one.
// Minter and metadata base changes emit no events, so they are ignored.
func SnapshotCompareOptions() []cmp.Option {
	return []cmp.Option{
		cmpopts.IgnoreFields(registry.Snapshot{}, "Minter", "BaseURI"),
		cmpopts.EquateEmpty(),
	}
}

// matchFields checks if actual contains all expected fields (subset match).
// Extra keys in actual are ignored.
func matchFields(actual map[string]any, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if display(want) != display(got) {
			return false
		}
	}
	return true
}
