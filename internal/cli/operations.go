package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// OperationResult is the output of a committed mutation.
type OperationResult struct {
	Op      string      `json:"op"`
	Caller  string      `json:"caller"`
	TxID    string      `json:"tx_id,omitempty"`
	TokenID *uint64     `json:"token_id,omitempty"` // minted token
	Events  []EventView `json:"events"`
}

func (r OperationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ %s by %s", r.Op, r.Caller)
	if r.TokenID != nil {
		fmt.Fprintf(&b, ": token %d", *r.TokenID)
	}
	if r.TxID != "" {
		fmt.Fprintf(&b, "\n  Tx: %s", r.TxID)
	}
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "\n  %s", ev)
	}
	return b.String()
}

// operation describes one mutating command.
type operation struct {
	op    string
	use   string
	short string
	long  string
	nargs int

	// run performs the mutation. Argument errors are returned already
	// reported; registry errors are returned as is.
	run func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, flags *operationFlags) (*ir.TokenID, error)
}

type operationFlags struct {
	Data string
}

var operations = []operation{
	{
		op:    registry.OpMint,
		use:   "mint <to>",
		short: "Mint a new token to an account (minter only)",
		nargs: 1,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			to, err := s.identity("to", args[0])
			if err != nil {
				return nil, err
			}
			id, err := reg.Mint(ctx, caller, to)
			if err != nil {
				return nil, err
			}
			return &id, nil
		},
	},
	{
		op:    registry.OpBurn,
		use:   "burn <token-id>",
		short: "Destroy a token",
		nargs: 1,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			id, err := s.token(args[0])
			if err != nil {
				return nil, err
			}
			return nil, reg.Burn(ctx, caller, id)
		},
	},
	{
		op:    registry.OpApprove,
		use:   "approve <approved> <token-id>",
		short: "Approve an account for one token (null clears)",
		nargs: 2,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			approved, err := s.identity("approved", args[0])
			if err != nil {
				return nil, err
			}
			id, err := s.token(args[1])
			if err != nil {
				return nil, err
			}
			return nil, reg.Approve(ctx, caller, approved, id)
		},
	},
	{
		op:    registry.OpSetApprovalForAll,
		use:   "set-approval-for-all <operator> <true|false>",
		short: "Grant or revoke an operator for all of the caller's tokens",
		nargs: 2,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			operator, err := s.identity("operator", args[0])
			if err != nil {
				return nil, err
			}
			enabled, err := strconv.ParseBool(args[1])
			if err != nil {
				return nil, s.out.Fail("invalid approval flag", err)
			}
			return nil, reg.SetApprovalForAll(ctx, caller, operator, enabled)
		},
	},
	{
		op:    registry.OpTransferFrom,
		use:   "transfer-from <from> <to> <token-id>",
		short: "Move a token without a receiver check",
		nargs: 3,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			from, to, id, err := s.transferArgs(args)
			if err != nil {
				return nil, err
			}
			return nil, reg.TransferFrom(ctx, caller, from, to, id)
		},
	},
	{
		op:    registry.OpSafeTransferFrom,
		use:   "safe-transfer-from <from> <to> <token-id>",
		short: "Move a token; a recipient with a receiver must acknowledge it",
		long: `Move a token. If the recipient has a receiver configured, it is called
after the move and must return the acknowledgment 0x150b7a02; otherwise
the whole transfer is undone with RECEIVER_REJECTED.`,
		nargs: 3,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, flags *operationFlags) (*ir.TokenID, error) {
			from, to, id, err := s.transferArgs(args)
			if err != nil {
				return nil, err
			}
			data, err := ir.DecodeHex(flags.Data)
			if err != nil {
				return nil, s.out.Fail("invalid --data", err)
			}
			return nil, reg.SafeTransferFrom(ctx, caller, from, to, id, data)
		},
	},
	{
		op:    registry.OpSetBaseURI,
		use:   "set-base-uri <uri>",
		short: "Set the metadata base (minter only)",
		nargs: 1,
		run: func(ctx context.Context, _ *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			return nil, reg.SetBaseURI(ctx, caller, args[0])
		},
	},
	{
		op:    registry.OpTransferMinter,
		use:   "transfer-minter <new-minter>",
		short: "Hand the minter role to another account (minter only)",
		nargs: 1,
		run: func(ctx context.Context, s *session, reg *registry.Registry, caller ir.Identity, args []string, _ *operationFlags) (*ir.TokenID, error) {
			minter, err := s.identity("new minter", args[0])
			if err != nil {
				return nil, err
			}
			return nil, reg.TransferMinter(ctx, caller, minter)
		},
	},
}

// NewOperationCommands creates one command per mutating operation.
func NewOperationCommands(rootOpts *RootOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(operations))
	for _, op := range operations {
		cmds = append(cmds, newOperationCommand(rootOpts, op))
	}
	return cmds
}

func newOperationCommand(rootOpts *RootOptions, op operation) *cobra.Command {
	flags := &operationFlags{}

	long := op.long
	if long == "" {
		long = op.short + "."
	}
	long += `

The acting account is --from.

Exit codes:
  0 - Operation committed
  1 - Operation rejected by the registry (the error code says why)
  2 - Command error`

	cmd := &cobra.Command{
		Use:           op.use,
		Short:         op.short,
		Long:          long,
		Args:          cobra.ExactArgs(op.nargs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(rootOpts, op, args, flags, cmd)
		},
	}
	if op.op == registry.OpSafeTransferFrom {
		cmd.Flags().StringVar(&flags.Data, "data", "", "hex payload passed to the receiver")
	}
	return cmd
}

func runOperation(opts *RootOptions, op operation, args []string, flags *operationFlags, cmd *cobra.Command) error {
	ctx := context.Background()

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	caller, err := s.caller()
	if err != nil {
		return err
	}
	reg, err := s.openRegistry(ctx)
	if err != nil {
		return err
	}

	before := reg.LastSeq()
	minted, err := op.run(ctx, s, reg, caller, args, flags)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return s.out.Fail(op.op+" failed", err)
	}

	events, err := s.store.ReadEvents(ctx, ir.EventFilter{AfterSeq: before})
	if err != nil {
		return s.out.Fail("failed to read events", err)
	}

	result := OperationResult{
		Op:     op.op,
		Caller: s.name(caller),
		Events: s.eventViews(events),
	}
	if len(events) > 0 {
		result.TxID = events[0].TxID
	}
	if minted != nil {
		id := uint64(*minted)
		result.TokenID = &id
	}
	return s.out.Success(result)
}

// transferArgs parses <from> <to> <token-id>.
func (s *session) transferArgs(args []string) (from, to ir.Identity, id ir.TokenID, err error) {
	if from, err = s.identity("from", args[0]); err != nil {
		return
	}
	if to, err = s.identity("to", args[1]); err != nil {
		return
	}
	id, err = s.token(args[2])
	return
}
