package registry

import (
	"github.com/roach88/nftreg/internal/ir"
)

// journalEntry is a modification of the registry state that can be reverted
// on demand.
type journalEntry interface {
	// revert undoes the change introduced by this entry.
	revert(*state)

	// dirtied returns the backend key modified by this entry.
	dirtied() string
}

// journal records every state change of the in-progress operation, so a
// failed operation (or a failed nested operation inside a receiver callback)
// can be unwound to a snapshot.
type journal struct {
	entries []journalEntry
	dirties map[string]int // Dirty keys and the number of changes
}

func newJournal() *journal {
	return &journal{dirties: make(map[string]int)}
}

// append inserts a new modification entry to the end of the journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	j.dirties[entry.dirtied()]++
}

// revert undoes every entry from snapshot on, newest first, along with the
// dirty tracking they induced.
func (j *journal) revert(s *state, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(s)

		key := j.entries[i].dirtied()
		if j.dirties[key]--; j.dirties[key] == 0 {
			delete(j.dirties, key)
		}
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	ownerChange struct {
		id      ir.TokenID
		prev    ir.Identity
		existed bool
	}
	approvalChange struct {
		id      ir.TokenID
		prev    ir.Identity
		existed bool
	}
	balanceChange struct {
		who  ir.Identity
		prev uint64
	}
	operatorChange struct {
		pair operatorPair
		prev bool
	}
	counterChange struct {
		key  string
		prev uint64
	}
	minterChange struct {
		prev ir.Identity
	}
	baseURIChange struct {
		prev string
	}
)

func (ch ownerChange) revert(s *state) {
	if ch.existed {
		s.owners[ch.id] = ch.prev
	} else {
		delete(s.owners, ch.id)
	}
}

func (ch ownerChange) dirtied() string {
	return ownerKey(ch.id)
}

func (ch approvalChange) revert(s *state) {
	if ch.existed {
		s.approvals[ch.id] = ch.prev
	} else {
		delete(s.approvals, ch.id)
	}
}

func (ch approvalChange) dirtied() string {
	return approvalKey(ch.id)
}

func (ch balanceChange) revert(s *state) {
	if ch.prev == 0 {
		delete(s.balances, ch.who)
	} else {
		s.balances[ch.who] = ch.prev
	}
}

func (ch balanceChange) dirtied() string {
	return balanceKey(ch.who)
}

func (ch operatorChange) revert(s *state) {
	if ch.prev {
		s.operators[ch.pair] = true
	} else {
		delete(s.operators, ch.pair)
	}
}

func (ch operatorChange) dirtied() string {
	return operatorKey(ch.pair)
}

func (ch counterChange) revert(s *state) {
	*s.counter(ch.key) = ch.prev
}

func (ch counterChange) dirtied() string {
	return ch.key
}

func (ch minterChange) revert(s *state) {
	s.minter = ch.prev
}

func (ch minterChange) dirtied() string {
	return keyMinter
}

func (ch baseURIChange) revert(s *state) {
	s.baseURI = ch.prev
}

func (ch baseURIChange) dirtied() string {
	return keyBaseURI
}
