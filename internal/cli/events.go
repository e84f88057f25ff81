package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nftreg/internal/ir"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Kind  string
	Token uint64
	TxID  string
	After int64
	Limit int
}

// EventsResult holds the event log listing.
type EventsResult struct {
	Events []EventView `json:"events"`
	Total  int         `json:"total"`
}

func (r EventsResult) String() string {
	if r.Total == 0 {
		return "No events found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Events: %d", r.Total)
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "\n  %s", ev)
	}
	return b.String()
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the committed event log",
		Long: `Show committed Transfer, Approval and ApprovalForAll events in order.

Examples:
  nftreg events --db ./reg.db
  nftreg events --db ./reg.db --kind Transfer --token 3
  nftreg events --db ./reg.db --tx 0192f0c4-...
  nftreg events --db ./reg.db --after 10 --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only events of this kind (Transfer|Approval|ApprovalForAll)")
	cmd.Flags().Uint64Var(&opts.Token, "token", 0, "only events about this token")
	cmd.Flags().StringVar(&opts.TxID, "tx", "", "only events of this transaction")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events after this seq")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of events (0 = all)")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	s, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	filter := ir.EventFilter{
		Kind:     ir.EventKind(opts.Kind),
		AfterSeq: opts.After,
		Limit:    opts.Limit,
	}
	if opts.Kind != "" && !slices.Contains(ir.ValidEventKinds, filter.Kind) {
		return s.out.Fail("invalid --kind", fmt.Errorf("unknown event kind %q", opts.Kind))
	}
	if cmd.Flags().Changed("token") {
		id := ir.TokenID(opts.Token)
		filter.TokenID = &id
	}

	var events []ir.Event
	if opts.TxID != "" {
		events, err = readTx(ctx, s, opts.TxID, filter)
	} else {
		events, err = s.store.ReadEvents(ctx, filter)
	}
	if err != nil {
		return s.out.Fail("failed to read events", err)
	}

	return s.out.Success(EventsResult{
		Events: s.eventViews(events),
		Total:  len(events),
	})
}

// readTx returns one transaction's events that also pass filter.
func readTx(ctx context.Context, s *session, txID string, filter ir.EventFilter) ([]ir.Event, error) {
	all, err := s.store.ReadTx(ctx, txID)
	if err != nil {
		return nil, err
	}
	events := make([]ir.Event, 0, len(all))
	for _, ev := range all {
		if !filter.Match(ev) {
			continue
		}
		events = append(events, ev)
		if filter.Limit > 0 && len(events) == filter.Limit {
			break
		}
	}
	return events, nil
}
