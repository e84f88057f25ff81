package testutil

import (
	"fmt"
	"sync"
)

// SequentialTxIDs generates "<prefix>-1", "<prefix>-2", ... transaction IDs.
//
// Unlike registry.FixedGenerator it never runs out, and it can be reset so
// the same scenario runs multiple times with identical IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialTxIDs struct {
	mu     sync.Mutex
	prefix string
	n      int64
}

// NewSequentialTxIDs creates a generator. If prefix is empty, "tx" is used.
func NewSequentialTxIDs(prefix string) *SequentialTxIDs {
	if prefix == "" {
		prefix = "tx"
	}
	return &SequentialTxIDs{prefix: prefix}
}

// Generate returns the next ID.
//
// Implements registry.TxIDGenerator.
func (g *SequentialTxIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Count returns how many IDs have been generated.
func (g *SequentialTxIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts the sequence at 1.
func (g *SequentialTxIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
