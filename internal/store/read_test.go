package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nftreg/internal/ir"
)

func TestScan_PrefixAndOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, []ir.Mutation{
		{Key: "owner/00000000000000000010", Value: []byte("b")},
		{Key: "owner/00000000000000000002", Value: []byte("a")},
		{Key: "ownership", Value: []byte("not-an-owner-key")},
		{Key: "meta/minter", Value: []byte("m")},
	}, nil))

	var keys []string
	err := s.Scan(ctx, "owner/", func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"owner/00000000000000000002", "owner/00000000000000000010"}, keys)

	var all []string
	require.NoError(t, s.Scan(ctx, "", func(key string, _ []byte) error {
		all = append(all, key)
		return nil
	}))
	assert.Len(t, all, 4)
}

func TestScan_CallbackError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Commit(ctx, []ir.Mutation{{Key: "meta/minter", Value: []byte("m")}}, nil))

	err := s.Scan(ctx, "", func(string, []byte) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLastSeq_Empty(t *testing.T) {
	s := createTestStore(t)

	seq, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestReadEvents_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	approval := ir.Event{Seq: 3, TxID: "tx-3", Kind: ir.EventApproval, Owner: alice, Approved: bob, TokenID: 1}
	approval.ID = ir.MustEventID(approval)
	operator := ir.Event{Seq: 4, TxID: "tx-4", Kind: ir.EventApprovalForAll, Owner: alice, Operator: bob, ApprovedAll: true}
	operator.ID = ir.MustEventID(operator)

	all := []ir.Event{
		createTestEvent(1, "tx-1", ir.Null, alice, 1),
		createTestEvent(2, "tx-2", ir.Null, alice, 2),
		approval,
		operator,
	}
	require.NoError(t, s.Commit(ctx, nil, all))

	one := ir.TokenID(1)
	zero := ir.TokenID(0)

	tests := []struct {
		name   string
		filter ir.EventFilter
		seqs   []int64
	}{
		{"all", ir.EventFilter{}, []int64{1, 2, 3, 4}},
		{"by kind", ir.EventFilter{Kind: ir.EventTransfer}, []int64{1, 2}},
		{"by token", ir.EventFilter{TokenID: &one}, []int64{1, 3}},
		{"token zero skips operator events", ir.EventFilter{TokenID: &zero}, []int64{}},
		{"after seq", ir.EventFilter{AfterSeq: 2}, []int64{3, 4}},
		{"limit", ir.EventFilter{Limit: 2}, []int64{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ReadEvents(ctx, tt.filter)
			require.NoError(t, err)

			seqs := []int64{}
			for _, ev := range got {
				seqs = append(seqs, ev.Seq)
				assert.True(t, tt.filter.Match(ev), "store and Match disagree on seq %d", ev.Seq)
			}
			assert.Equal(t, tt.seqs, seqs)
		})
	}

	got, err := s.ReadEvents(ctx, ir.EventFilter{Kind: ir.EventApprovalForAll})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, operator, got[0])
}

func TestReadTx(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Commit(ctx, nil, []ir.Event{
		createTestEvent(1, "tx-a", ir.Null, alice, 1),
		createTestEvent(2, "tx-a", alice, bob, 1),
		createTestEvent(3, "tx-b", ir.Null, bob, 2),
	}))

	got, err := s.ReadTx(ctx, "tx-a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, int64(2), got[1].Seq)

	none, err := s.ReadTx(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, "owner0", prefixEnd("owner/"))
	assert.Equal(t, "b", prefixEnd("a"))
}
