package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/harness"
	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
)

// ReplayResult holds the replay verification result.
type ReplayResult struct {
	Events     int    `json:"events"`
	LastSeq    int64  `json:"last_seq"`
	Tokens     int    `json:"tokens"`
	Supply     uint64 `json:"supply"`
	Consistent bool   `json:"consistent"`
	Violation  string `json:"violation,omitempty"` // broken invariant in the stored state
	Diff       string `json:"diff,omitempty"`      // -stored +replayed
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild state from the event log and verify it",
		Long: `Fold the committed event log into a fresh state and compare it with the
stored registry state.

The stored state is first checked for internal consistency (balances match
ownership, supply matches minted minus burned, no null owners). The
replayed state must then equal it in ownership, balances, approvals,
operators and counters. The minter and metadata base emit no events and
are not compared.

Exit codes:
  0 - Event log and stored state agree
  1 - Verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  nftreg replay --db ./reg.db
  nftreg replay --db ./reg.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, cmd)
		},
	}

	return cmd
}

func runReplay(opts *RootOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	reg, err := s.openRegistry(ctx)
	if err != nil {
		return err
	}
	stored := reg.Snapshot()

	events, err := s.store.ReadEvents(ctx, ir.EventFilter{})
	if err != nil {
		return s.out.Fail("failed to read events", err)
	}
	s.out.VerboseLog("Replaying %d event(s)", len(events))

	result := ReplayResult{
		Events:     len(events),
		LastSeq:    reg.LastSeq(),
		Tokens:     len(stored.Owners),
		Supply:     stored.Minted - stored.Burned,
		Consistent: true,
	}

	if err := registry.CheckInvariants(stored); err != nil {
		result.Consistent = false
		result.Violation = err.Error()
	}

	replayed, err := registry.Replay(events)
	if err != nil {
		result.Consistent = false
		result.Diff = err.Error()
	} else if diff := cmp.Diff(stored, replayed, harness.SnapshotCompareOptions()...); diff != "" {
		result.Consistent = false
		result.Diff = diff
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.Consistent {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplay,
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Consistent {
		return &ExitError{Code: ExitFailure, Message: "replay verification failed", Reported: true}
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d event(s), last seq %d\n", result.Events, result.LastSeq)
	fmt.Fprintf(w, "  Tokens: %d\n", result.Tokens)
	fmt.Fprintf(w, "  Supply: %d\n", result.Supply)
	fmt.Fprintln(w)

	if result.Consistent {
		fmt.Fprintln(w, "✓ Event log matches stored state")
		return nil
	}

	if result.Violation != "" {
		fmt.Fprintf(w, "  Invariant violated: %s\n", result.Violation)
	}
	if result.Diff != "" {
		fmt.Fprintf(w, "  Difference (-stored +replayed):\n%s\n", result.Diff)
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
	return &ExitError{Code: ExitFailure, Message: "replay verification failed", Reported: true}
}
