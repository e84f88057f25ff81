package registry

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nftreg/internal/ir"
)

func newTestTxn() *txn {
	return &txn{st: newState(minter, "base/"), j: newJournal()}
}

func TestJournal_RevertRestoresEveryTable(t *testing.T) {
	tx := newTestTxn()
	tx.setOwner(1, acc1)
	tx.setBalance(acc1, 1)
	tx.setCounter(keyMinted, 1)
	tx.setCounter(keyNextID, 2)
	before := tx.st.snapshot()
	snap := tx.snapshot()

	tx.setOwner(1, acc2)
	tx.setOwner(2, acc2)
	tx.setApproval(1, acc3)
	tx.setBalance(acc1, 0)
	tx.setBalance(acc2, 2)
	tx.setOperator(operatorPair{Owner: acc1, Operator: acc2}, true)
	tx.setCounter(keyBurned, 7)
	tx.setMinter(acc3)
	tx.setBaseURI("other/")
	tx.emit(ir.Event{Kind: ir.EventTransfer})

	tx.revertTo(snap)
	assert.Equal(t, before, tx.st.snapshot())
	assert.Empty(t, tx.events)
}

func TestJournal_DirtyTracking(t *testing.T) {
	tx := newTestTxn()
	tx.setOwner(1, acc1)
	snap := tx.snapshot()
	tx.setOwner(1, acc2)
	tx.setBalance(acc2, 1)

	assert.Equal(t, 2, tx.j.dirties[ownerKey(1)])
	assert.Equal(t, 1, tx.j.dirties[balanceKey(acc2)])

	tx.revertTo(snap)
	assert.Equal(t, 1, tx.j.dirties[ownerKey(1)])
	_, ok := tx.j.dirties[balanceKey(acc2)]
	assert.False(t, ok, "fully reverted keys are no longer dirty")
}

func TestTxn_MutationsEncodeAndDelete(t *testing.T) {
	st := newState(minter, "")
	st.owners[1] = acc1
	st.balances[acc1] = 1
	st.approvals[1] = acc2

	tx := &txn{st: st, j: newJournal()}
	tx.setApproval(1, ir.Null)
	tx.setOwner(1, acc3)
	tx.setBalance(acc1, 0)
	tx.setBalance(acc3, 1)

	muts, err := tx.mutations()
	require.NoError(t, err)
	assert.ElementsMatch(t, []ir.Mutation{
		{Key: approvalKey(1), Delete: true},
		{Key: balanceKey(acc1), Delete: true},
		{Key: balanceKey(acc3), Value: []byte("1")},
		{Key: ownerKey(1), Value: []byte(acc3.String())},
	}, muts)
	assert.True(t, sort.SliceIsSorted(muts, func(i, j int) bool { return muts[i].Key < muts[j].Key }))
}

func TestTxn_GuardedUnwindsOnlyItsOwnChanges(t *testing.T) {
	tx := newTestTxn()
	tx.setBaseURI("kept/")

	err := tx.guarded(func() error {
		tx.setMinter(acc1)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, minter, tx.st.minter)
	assert.Equal(t, "kept/", tx.st.baseURI)
}

func TestKeys_RoundTrip(t *testing.T) {
	st := newState(minter, "ipfs://x/")
	st.owners[42] = acc1
	st.approvals[42] = acc2
	st.balances[acc1] = 1
	st.operators[operatorPair{Owner: acc1, Operator: acc3}] = true
	st.nextID = 43
	st.minted = 5
	st.burned = 4

	keys := []string{
		keyMinter, keyBaseURI, keyNextID, keyMinted, keyBurned,
		ownerKey(42), approvalKey(42), balanceKey(acc1),
		operatorKey(operatorPair{Owner: acc1, Operator: acc3}),
	}

	loaded := newState(ir.Null, "")
	for _, k := range keys {
		value, ok, err := st.value(k)
		require.NoError(t, err)
		require.True(t, ok, k)
		require.NoError(t, loaded.load(k, value))
	}
	assert.Equal(t, st.snapshot(), loaded.snapshot())
}

func TestKeys_Layout(t *testing.T) {
	assert.Equal(t, "owner/00000000000000000042", ownerKey(42))
	assert.Equal(t, "approval/00000000000000000042", approvalKey(42))
	assert.Equal(t, "balance/"+acc1.String(), balanceKey(acc1))
	assert.Equal(t, "operator/"+acc1.String()+"/"+acc2.String(), operatorKey(operatorPair{Owner: acc1, Operator: acc2}))
}

func TestKeys_LoadRejectsGarbage(t *testing.T) {
	st := newState(ir.Null, "")
	assert.Error(t, st.load("unknown/key", []byte("x")))
	assert.Error(t, st.load(keyNextID, []byte("not-a-number")))
	assert.Error(t, st.load(ownerKey(1), []byte("0xnothex")))
	assert.Error(t, st.load("operator/missing-separator", []byte("1")))
}
