package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialTxIDs_Sequence(t *testing.T) {
	gen := NewSequentialTxIDs("op")

	assert.Equal(t, "op-1", gen.Generate())
	assert.Equal(t, "op-2", gen.Generate())
	assert.Equal(t, int64(2), gen.Count())
}

func TestSequentialTxIDs_DefaultPrefix(t *testing.T) {
	gen := NewSequentialTxIDs("")
	assert.Equal(t, "tx-1", gen.Generate())
}

func TestSequentialTxIDs_Reset(t *testing.T) {
	gen := NewSequentialTxIDs("tx")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "tx-1", gen.Generate())
}

func TestSequentialTxIDs_ThreadSafe(t *testing.T) {
	gen := NewSequentialTxIDs("tx")
	const goroutines = 50
	const calls = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*calls, "all IDs should be unique")
}

func TestAccounts(t *testing.T) {
	accs := Accounts(3)
	assert.Len(t, accs, 3)
	assert.Equal(t, Account(1), accs[1])
	assert.NotEqual(t, accs[0], accs[1])
	for _, a := range accs {
		assert.False(t, a.IsNull())
	}
}
