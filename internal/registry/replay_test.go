package registry

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nftreg/internal/ir"
)

func TestReplay_MatchesLiveState(t *testing.T) {
	f := newFixture(t)
	f.mint(t, acc1, acc1, acc2)
	require.NoError(t, f.reg.Approve(f.ctx, acc1, acc3, 1))
	require.NoError(t, f.reg.Approve(f.ctx, acc1, acc3, 2))
	require.NoError(t, f.reg.TransferFrom(f.ctx, acc3, acc1, acc2, 1))
	require.NoError(t, f.reg.SetApprovalForAll(f.ctx, acc2, acc1, true))
	require.NoError(t, f.reg.Burn(f.ctx, acc1, 3))
	require.NoError(t, f.reg.Approve(f.ctx, acc1, ir.Null, 2))

	replayed, err := Replay(f.log.all())
	require.NoError(t, err)
	require.NoError(t, CheckInvariants(replayed))

	live := f.reg.Snapshot()
	live.Minter, live.BaseURI = ir.Null, ""
	assert.Equal(t, live, replayed)
}

func TestReplay_RejectsImpossibleLogs(t *testing.T) {
	mint1 := ir.Event{Seq: 1, Kind: ir.EventTransfer, From: ir.Null, To: acc1, TokenID: 1}

	tests := []struct {
		name   string
		events []ir.Event
	}{
		{"seq not increasing", []ir.Event{mint1, {Seq: 1, Kind: ir.EventTransfer, From: ir.Null, To: acc1, TokenID: 2}}},
		{"remint", []ir.Event{mint1, {Seq: 2, Kind: ir.EventTransfer, From: ir.Null, To: acc2, TokenID: 1}}},
		{"transfer unknown token", []ir.Event{{Seq: 1, Kind: ir.EventTransfer, From: acc1, To: acc2, TokenID: 5}}},
		{"transfer from non-owner", []ir.Event{mint1, {Seq: 2, Kind: ir.EventTransfer, From: acc2, To: acc3, TokenID: 1}}},
		{"null to null", []ir.Event{{Seq: 1, Kind: ir.EventTransfer, TokenID: 1}}},
		{"approval by non-owner", []ir.Event{mint1, {Seq: 2, Kind: ir.EventApproval, Owner: acc2, Approved: acc3, TokenID: 1}}},
		{"approval of unknown token", []ir.Event{{Seq: 1, Kind: ir.EventApproval, Owner: acc2, Approved: acc3, TokenID: 1}}},
		{"self operator", []ir.Event{{Seq: 1, Kind: ir.EventApprovalForAll, Owner: acc1, Operator: acc1, ApprovedAll: true}}},
		{"unknown kind", []ir.Event{{Seq: 1, Kind: "Mystery"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(tt.events)
			assert.Error(t, err)
		})
	}
}

func TestCheckInvariants_DetectsViolations(t *testing.T) {
	good := Snapshot{
		NextID:    3,
		Minted:    2,
		Burned:    0,
		Owners:    map[ir.TokenID]ir.Identity{1: acc1, 2: acc1},
		Balances:  map[ir.Identity]uint64{acc1: 2},
		Approvals: map[ir.TokenID]ir.Identity{1: acc2},
	}
	require.NoError(t, CheckInvariants(good))

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"balance mismatch", func(s *Snapshot) { s.Balances[acc1] = 3 }},
		{"missing balance", func(s *Snapshot) { delete(s.Balances, acc1) }},
		{"zero balance stored", func(s *Snapshot) { s.Balances[acc2] = 0 }},
		{"null owner", func(s *Snapshot) { s.Owners[2] = ir.Null; s.Balances[acc1] = 1; s.Balances[ir.Null] = 1 }},
		{"supply mismatch", func(s *Snapshot) { s.Minted = 5 }},
		{"burned exceeds minted", func(s *Snapshot) { s.Burned = 9 }},
		{"id beyond next", func(s *Snapshot) { s.NextID = 2 }},
		{"orphan approval", func(s *Snapshot) { s.Approvals[9] = acc2 }},
		{"null approval", func(s *Snapshot) { s.Approvals[2] = ir.Null }},
		{"self operator", func(s *Snapshot) { s.Operators = []OperatorApproval{{Owner: acc1, Operator: acc1}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Snapshot{
				NextID:    good.NextID,
				Minted:    good.Minted,
				Owners:    map[ir.TokenID]ir.Identity{1: acc1, 2: acc1},
				Balances:  map[ir.Identity]uint64{acc1: 2},
				Approvals: map[ir.TokenID]ir.Identity{1: acc2},
			}
			tt.mutate(&s)
			assert.Error(t, CheckInvariants(s))
		})
	}
}

// TestRandomOperations drives the registry with a seeded random mix of
// operations, valid and invalid, and checks the invariants, the supply
// arithmetic and the event log after each step.
func TestRandomOperations(t *testing.T) {
	receiverID := ir.NamedIdentity("random-receiver")
	rejecting := ir.NamedIdentity("random-rejecting")
	f := newFixture(t, WithReceivers(Receivers{
		receiverID: NewAcceptingReceiver(),
		rejecting:  &StaticReceiver{Ack: Ack{1, 2, 3, 4}},
	}))
	people := []ir.Identity{minter, acc1, acc2, acc3, receiverID, rejecting, ir.Null}
	rng := rand.New(rand.NewSource(42))
	pick := func() ir.Identity { return people[rng.Intn(len(people))] }

	var mints, burns uint64
	for step := 0; step < 500; step++ {
		id := ir.TokenID(rng.Intn(12))
		var err error
		switch rng.Intn(6) {
		case 0:
			_, err = f.reg.Mint(f.ctx, pick(), pick())
			if err == nil {
				mints++
			}
		case 1:
			err = f.reg.Burn(f.ctx, pick(), id)
			if err == nil {
				burns++
			}
		case 2:
			err = f.reg.Approve(f.ctx, pick(), pick(), id)
		case 3:
			err = f.reg.SetApprovalForAll(f.ctx, pick(), pick(), rng.Intn(2) == 0)
		case 4:
			err = f.reg.TransferFrom(f.ctx, pick(), pick(), pick(), id)
		case 5:
			err = f.reg.SafeTransferFrom(f.ctx, pick(), pick(), pick(), id, nil)
		}
		if err != nil {
			require.True(t, IsRejection(err), "step %d: unexpected error %v", step, err)
		}

		require.Equal(t, mints-burns, f.reg.TotalSupply(), "step %d", step)
		require.NoError(t, CheckInvariants(f.reg.Snapshot()), "step %d", step)
	}

	replayed, err := Replay(f.log.all())
	require.NoError(t, err)
	live := f.reg.Snapshot()
	live.Minter, live.BaseURI = ir.Null, ""
	assert.Equal(t, live, replayed)
	f.requireConsistent(t)
}
