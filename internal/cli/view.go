package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/nftreg/internal/ir"
)

// EventView is an event with identities rendered as account names.
type EventView struct {
	Seq      int64   `json:"seq"`
	ID       string  `json:"id"`
	TxID     string  `json:"tx_id"`
	Kind     string  `json:"kind"`
	TokenID  *uint64 `json:"token_id,omitempty"`
	From     string  `json:"from,omitempty"`
	To       string  `json:"to,omitempty"`
	Owner    string  `json:"owner,omitempty"`
	Approved string  `json:"approved,omitempty"`
	Operator string  `json:"operator,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

func (s *session) eventView(ev ir.Event) EventView {
	v := EventView{
		Seq:  ev.Seq,
		ID:   ev.ID,
		TxID: ev.TxID,
		Kind: string(ev.Kind),
	}
	switch ev.Kind {
	case ir.EventTransfer:
		id := uint64(ev.TokenID)
		v.TokenID = &id
		v.From = s.name(ev.From)
		v.To = s.name(ev.To)
	case ir.EventApproval:
		id := uint64(ev.TokenID)
		v.TokenID = &id
		v.Owner = s.name(ev.Owner)
		v.Approved = s.name(ev.Approved)
	case ir.EventApprovalForAll:
		enabled := ev.ApprovedAll
		v.Owner = s.name(ev.Owner)
		v.Operator = s.name(ev.Operator)
		v.Enabled = &enabled
	}
	return v
}

func (s *session) eventViews(events []ir.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, s.eventView(ev))
	}
	return views
}

// String renders the event on one line, brownie style:
// "#3 Transfer from=alice to=bob token_id=1".
func (v EventView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", v.Seq, v.Kind)
	switch v.Kind {
	case string(ir.EventTransfer):
		fmt.Fprintf(&b, " from=%s to=%s", v.From, v.To)
	case string(ir.EventApproval):
		fmt.Fprintf(&b, " owner=%s approved=%s", v.Owner, v.Approved)
	case string(ir.EventApprovalForAll):
		fmt.Fprintf(&b, " owner=%s operator=%s approved=%t", v.Owner, v.Operator, *v.Enabled)
	}
	if v.TokenID != nil {
		fmt.Fprintf(&b, " token_id=%d", *v.TokenID)
	}
	return b.String()
}
