package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// DeployOptions holds flags for the deploy command.
type DeployOptions struct {
	*RootOptions
	Minter  string
	BaseURI string
}

// DeployResult is the output of a deployment.
type DeployResult struct {
	Database string `json:"database"`
	Minter   string `json:"minter"`
	BaseURI  string `json:"base_uri"`
}

func (r DeployResult) String() string {
	return fmt.Sprintf("✓ Registry deployed to %s\n  Minter: %s\n  Base URI: %q", r.Database, r.Minter, r.BaseURI)
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeployOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create a new registry in the database",
		Long: `Create a new, empty registry in the database.

The minter is taken from --minter, then from the config file's
deploy.minter, then from --from. The initial metadata base is taken from
--base-uri or the config file.

Exit codes:
  0 - Registry deployed
  1 - Rejected (already deployed, null minter)
  2 - Command error

Examples:
  nftreg deploy --db ./reg.db --from minter
  nftreg deploy --config ./registry.cue --base-uri ipfs://meta/`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Minter, "minter", "", "minter account (default: config deploy.minter, else --from)")
	cmd.Flags().StringVar(&opts.BaseURI, "base-uri", "", "initial metadata base (default: config deploy.base_uri)")

	return cmd
}

func runDeploy(opts *DeployOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	minter := s.cfg.Minter
	switch {
	case opts.Minter != "":
		if minter, err = s.identity("--minter", opts.Minter); err != nil {
			return err
		}
	case minter.IsNull() && opts.From != "":
		if minter, err = s.caller(); err != nil {
			return err
		}
	}
	if minter == ir.Null && opts.Minter == "" && opts.From == "" {
		return s.out.Fail("missing minter", fmt.Errorf("no minter: set --minter, --from or deploy.minter"))
	}

	baseURI := s.cfg.BaseURI
	if cmd.Flags().Changed("base-uri") {
		baseURI = opts.BaseURI
	}

	reg, err := registry.Deploy(ctx, s.store, minter,
		append(s.registryOptions(), registry.WithBaseURI(baseURI))...)
	if err != nil {
		return s.out.Fail("deploy failed", err)
	}

	return s.out.Success(DeployResult{
		Database: s.store.Path(),
		Minter:   s.name(reg.Minter()),
		BaseURI:  reg.BaseURI(),
	})
}
