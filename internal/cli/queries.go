package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// QueryResult is the output of a read.
type QueryResult struct {
	Query string `json:"query"`
	Value any    `json:"value"` // identities are rendered as account names
}

func (r QueryResult) String() string {
	return fmt.Sprint(r.Value)
}

// query describes one read-only command.
type query struct {
	name  string
	use   string
	short string
	nargs int
	run   func(s *session, reg *registry.Registry, args []string) (any, error)
}

var queries = []query{
	{
		name:  registry.OpOwnerOf,
		use:   "owner-of <token-id>",
		short: "Print the owner of a token",
		nargs: 1,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			id, err := s.token(args[0])
			if err != nil {
				return nil, err
			}
			owner, err := reg.OwnerOf(id)
			if err != nil {
				return nil, err
			}
			return s.name(owner), nil
		},
	},
	{
		name:  registry.OpBalanceOf,
		use:   "balance-of <owner>",
		short: "Print how many tokens an account owns",
		nargs: 1,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			owner, err := s.identity("owner", args[0])
			if err != nil {
				return nil, err
			}
			return reg.BalanceOf(owner)
		},
	},
	{
		name:  registry.OpGetApproved,
		use:   "get-approved <token-id>",
		short: "Print the account approved for a token, or null",
		nargs: 1,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			id, err := s.token(args[0])
			if err != nil {
				return nil, err
			}
			approved, err := reg.GetApproved(id)
			if err != nil {
				return nil, err
			}
			return s.name(approved), nil
		},
	},
	{
		name:  registry.OpIsApprovedForAll,
		use:   "is-approved-for-all <owner> <operator>",
		short: "Print whether an operator may manage all of an owner's tokens",
		nargs: 2,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			owner, err := s.identity("owner", args[0])
			if err != nil {
				return nil, err
			}
			operator, err := s.identity("operator", args[1])
			if err != nil {
				return nil, err
			}
			return reg.IsApprovedForAll(owner, operator), nil
		},
	},
	{
		name:  registry.OpTotalSupply,
		use:   "total-supply",
		short: "Print the number of existing tokens",
		run: func(_ *session, reg *registry.Registry, _ []string) (any, error) {
			return reg.TotalSupply(), nil
		},
	},
	{
		name:  registry.OpTokenURI,
		use:   "token-uri <token-id>",
		short: "Print the metadata URI of a token",
		nargs: 1,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			id, err := s.token(args[0])
			if err != nil {
				return nil, err
			}
			return reg.TokenURI(id)
		},
	},
	{
		name:  registry.OpMinter,
		use:   "minter",
		short: "Print the current minter",
		run: func(s *session, reg *registry.Registry, _ []string) (any, error) {
			return s.name(reg.Minter()), nil
		},
	},
	{
		name:  registry.OpSupportsInterface,
		use:   "supports-interface <interface-id>",
		short: "Print whether a 4-byte capability identifier is supported",
		nargs: 1,
		run: func(s *session, reg *registry.Registry, args []string) (any, error) {
			iid, err := ir.ParseInterfaceID(args[0])
			if err != nil {
				return nil, s.out.Fail("invalid interface id", err)
			}
			return reg.SupportsInterface(iid), nil
		},
	},
}

// NewQueryCommands creates one command per read.
func NewQueryCommands(rootOpts *RootOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(queries))
	for _, q := range queries {
		cmds = append(cmds, &cobra.Command{
			Use:           q.use,
			Short:         q.short,
			Args:          cobra.ExactArgs(q.nargs),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuery(rootOpts, q, args, cmd)
			},
		})
	}
	return cmds
}

func runQuery(opts *RootOptions, q query, args []string, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := s.openRegistry(context.Background())
	if err != nil {
		return err
	}

	value, err := q.run(s, reg, args)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return s.out.Fail(q.name+" failed", err)
	}
	return s.out.Success(QueryResult{Query: q.name, Value: value})
}
