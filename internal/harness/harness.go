package harness

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/nftreg/internal/config"
	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/memstore"
	"github.com/roach88/nftreg/internal/metrics"
	"github.com/roach88/nftreg/internal/registry"
	"github.com/roach88/nftreg/internal/testutil"
)

// DefaultMinter is the minter account of scenarios that name none.
const DefaultMinter = "minter"

// Harness is the test execution engine.
// It runs one scenario against a fresh registry with deterministic
// transaction IDs.
type Harness struct {
	reg       *registry.Registry
	backend   *memstore.Store
	accounts  config.Accounts
	receivers map[ir.Identity]*registry.StaticReceiver
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Deploy a registry on a fresh in-memory backend
// 2. Execute setup steps (each must succeed)
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
//
// An error is returned only when the scenario cannot be executed at all;
// failed expectations are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Setup {
		if err := h.runStep(ctx, PhaseSetup, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute setup: %w", err)
		}
	}
	for i, step := range scenario.Flow {
		if err := h.runStep(ctx, PhaseFlow, i, step, result); err != nil {
			return nil, fmt.Errorf("failed to execute flow: %w", err)
		}
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}

	stats, err := h.metrics.Stats()
	if err != nil {
		return nil, fmt.Errorf("gather stats: %w", err)
	}
	result.Stats = stats
	return result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	h := &Harness{
		backend:   memstore.New(),
		accounts:  config.Accounts{},
		receivers: make(map[ir.Identity]*registry.StaticReceiver),
		metrics:   metrics.New(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	minterName := scenario.Minter
	if minterName == "" {
		minterName = DefaultMinter
	}
	minter, err := h.identity(minterName)
	if err != nil {
		return nil, fmt.Errorf("minter: %w", err)
	}

	resolver := registry.Receivers{}
	for name, def := range scenario.Receivers {
		id, err := h.identity(name)
		if err != nil {
			return nil, fmt.Errorf("receivers.%s: %w", name, err)
		}
		ack := registry.ReceivedAck
		if def.Ack != "" {
			if ack, err = registry.ParseAck(def.Ack); err != nil {
				return nil, fmt.Errorf("receivers.%s: %w", name, err)
			}
		}
		rcv := &registry.StaticReceiver{Ack: ack, Fail: def.Fail}
		h.receivers[id] = rcv
		resolver[id] = rcv
	}

	reg, err := registry.Deploy(ctx, h.backend, minter,
		registry.WithLogger(h.logger),
		registry.WithBaseURI(scenario.BaseURI),
		registry.WithReceivers(resolver),
		registry.WithTxIDGenerator(testutil.NewSequentialTxIDs("tx")),
		registry.WithRecorder(h.metrics),
		registry.WithObserver(h.metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("deploy: %w", err)
	}
	h.reg = reg
	return h, nil
}

// identity resolves an account name. Unknown plain names become new
// deterministic accounts.
func (h *Harness) identity(name string) (ir.Identity, error) {
	if id, err := h.accounts.Resolve(name); err == nil {
		return id, nil
	}
	if name == "" || strings.HasPrefix(name, "0x") || strings.HasPrefix(name, "0X") {
		return ir.Null, fmt.Errorf("invalid identity %q", name)
	}
	id := ir.NamedIdentity(name)
	h.accounts[name] = id
	return id, nil
}

// name renders an identity the way the scenario wrote it.
func (h *Harness) name(id ir.Identity) string {
	if id.IsNull() {
		return "null"
	}
	return h.accounts.Name(id)
}

// runStep executes one step, records it in the trace and checks its
// expectation. Only setup failures and infrastructure errors are returned.
func (h *Harness) runStep(ctx context.Context, phase string, index int, step Step, result *Result) error {
	before := h.reg.LastSeq()

	value, err := h.execute(ctx, step)
	if err != nil && !registry.IsRejection(err) {
		return fmt.Errorf("%s[%d] %s: %w", phase, index, step.Op, err)
	}

	events, readErr := h.backend.ReadEvents(ctx, ir.EventFilter{AfterSeq: before})
	if readErr != nil {
		return fmt.Errorf("%s[%d] %s: read events: %w", phase, index, step.Op, readErr)
	}

	ts := TraceStep{
		Phase:   phase,
		Op:      step.Op,
		Caller:  step.Caller,
		Args:    step.Args.canonical(),
		Outcome: outcomeOf(err),
		Result:  value,
		Events:  make([]map[string]any, 0, len(events)),
	}
	for _, ev := range events {
		ts.Events = append(ts.Events, h.renderEvent(ev))
	}
	result.Trace = append(result.Trace, ts)

	h.logger.Debug("step executed", "phase", phase, "step", index, "op", step.Op, "outcome", ts.Outcome)

	if phase == PhaseSetup {
		if err != nil {
			return fmt.Errorf("setup[%d] %s: %w", index, step.Op, err)
		}
		return nil
	}

	label := fmt.Sprintf("flow[%d] %s", index, step.Op)
	switch {
	case step.Expect != nil && step.Expect.Error != "":
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error %s, got success", label, step.Expect.Error))
		} else if string(registry.CodeOf(err)) != step.Expect.Error {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s", label, step.Expect.Error, registry.CodeOf(err)))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
	case step.Expect != nil && step.Expect.Result != nil:
		if want, got := display(step.Expect.Result), display(value); want != got {
			result.AddError(fmt.Sprintf("%s: expected result %s, got %s", label, want, got))
		}
	}
	return nil
}

func outcomeOf(err error) string {
	if err == nil {
		return registry.OutcomeOK
	}
	return string(registry.CodeOf(err))
}

// execute dispatches a step to the registry. The returned value is already
// rendered: identities as names, numbers as uint64.
func (h *Harness) execute(ctx context.Context, step Step) (any, error) {
	a := step.Args

	var caller ir.Identity
	if step.Caller != "" {
		var err error
		if caller, err = h.identity(step.Caller); err != nil {
			return nil, fmt.Errorf("caller: %w", err)
		}
	}

	ids := make(map[string]ir.Identity)
	for _, field := range operations[step.Op].required {
		if !isIdentityArg(field) {
			continue
		}
		id, err := h.identity(a.get(field))
		if err != nil {
			return nil, fmt.Errorf("args.%s: %w", field, err)
		}
		ids[field] = id
	}

	var token ir.TokenID
	if a.TokenID != nil {
		token = ir.TokenID(*a.TokenID)
	}

	switch step.Op {
	case registry.OpMint:
		id, err := h.reg.Mint(ctx, caller, ids["to"])
		if err != nil {
			return nil, err
		}
		return uint64(id), nil
	case registry.OpBurn:
		return nil, h.reg.Burn(ctx, caller, token)
	case registry.OpApprove:
		return nil, h.reg.Approve(ctx, caller, ids["approved"], token)
	case registry.OpSetApprovalForAll:
		return nil, h.reg.SetApprovalForAll(ctx, caller, ids["operator"], *a.Enabled)
	case registry.OpTransferFrom:
		return nil, h.reg.TransferFrom(ctx, caller, ids["from"], ids["to"], token)
	case registry.OpSafeTransferFrom:
		data, err := ir.DecodeHex(a.Data)
		if err != nil {
			return nil, fmt.Errorf("args.data: %w", err)
		}
		return nil, h.reg.SafeTransferFrom(ctx, caller, ids["from"], ids["to"], token, data)
	case registry.OpSetBaseURI:
		return nil, h.reg.SetBaseURI(ctx, caller, *a.URI)
	case registry.OpTransferMinter:
		return nil, h.reg.TransferMinter(ctx, caller, ids["minter"])

	case registry.OpOwnerOf:
		owner, err := h.reg.OwnerOf(token)
		if err != nil {
			return nil, err
		}
		return h.name(owner), nil
	case registry.OpBalanceOf:
		n, err := h.reg.BalanceOf(ids["owner"])
		if err != nil {
			return nil, err
		}
		return n, nil
	case registry.OpGetApproved:
		approved, err := h.reg.GetApproved(token)
		if err != nil {
			return nil, err
		}
		return h.name(approved), nil
	case registry.OpIsApprovedForAll:
		return h.reg.IsApprovedForAll(ids["owner"], ids["operator"]), nil
	case registry.OpAuthorized:
		ok, err := h.reg.Authorized(ids["actor"], token)
		if err != nil {
			return nil, err
		}
		return ok, nil
	case registry.OpTotalSupply:
		return h.reg.TotalSupply(), nil
	case registry.OpTokenURI:
		uri, err := h.reg.TokenURI(token)
		if err != nil {
			return nil, err
		}
		return uri, nil
	case registry.OpMinter:
		return h.name(h.reg.Minter()), nil
	case registry.OpSupportsInterface:
		iid, err := ir.ParseInterfaceID(a.InterfaceID)
		if err != nil {
			return nil, fmt.Errorf("args.interface_id: %w", err)
		}
		return h.reg.SupportsInterface(iid), nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

// renderEvent returns the event payload with identities as names.
func (h *Harness) renderEvent(ev ir.Event) map[string]any {
	m := map[string]any{
		"seq":  ev.Seq,
		"kind": string(ev.Kind),
	}
	switch ev.Kind {
	case ir.EventTransfer:
		m["from"] = h.name(ev.From)
		m["to"] = h.name(ev.To)
		m["token_id"] = uint64(ev.TokenID)
	case ir.EventApproval:
		m["owner"] = h.name(ev.Owner)
		m["approved"] = h.name(ev.Approved)
		m["token_id"] = uint64(ev.TokenID)
	case ir.EventApprovalForAll:
		m["owner"] = h.name(ev.Owner)
		m["operator"] = h.name(ev.Operator)
		m["approved"] = ev.ApprovedAll
	}
	return m
}

func (h *Harness) renderCall(c registry.ReceivedCall) map[string]any {
	return map[string]any{
		"operator": h.name(c.Operator),
		"from":     h.name(c.From),
		"token_id": uint64(c.TokenID),
		"data":     "0x" + hex.EncodeToString(c.Data),
	}
}

// display formats a YAML or rendered value for comparison. YAML null
// stands for the null identity.
func display(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
