package detect

import (
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// Entry is one transaction of the observation window, paired with its
// normalized intent. Ordinal is the execution-order position inside the
// window (finalized transactions first by block/index, then the pending set
// in observation order).
type Entry struct {
	Tx      *domain.PendingTransaction
	Intent  *domain.SwapIntent
	Ordinal int
}

// Window is the bounded, immutable snapshot of recent and pending
// transactions the detectors are allowed to examine. It is built once per
// cycle and never mutated afterwards, so concurrent detectors share it
// without locks.
type Window struct {
	HeadBlock uint64
	entries   []Entry
	byHash    map[string]int
}

// NewWindow builds a snapshot from transactions already ordered by
// execution position.
func NewWindow(headBlock uint64, txs []*domain.PendingTransaction, intents []*domain.SwapIntent) *Window {
	w := &Window{
		HeadBlock: headBlock,
		entries:   make([]Entry, 0, len(txs)),
		byHash:    make(map[string]int, len(txs)),
	}
	for i, tx := range txs {
		w.entries = append(w.entries, Entry{Tx: tx, Intent: intents[i], Ordinal: i})
		w.byHash[tx.Hash] = i
	}
	return w
}

// Entries returns the window contents in execution order. Callers must not
// modify the returned slice.
func (w *Window) Entries() []Entry {
	return w.entries
}

// Position returns the ordinal of a transaction, or -1 if it is not part of
// the window.
func (w *Window) Position(txHash string) int {
	if i, ok := w.byHash[txHash]; ok {
		return i
	}
	return -1
}

func (w *Window) Len() int {
	return len(w.entries)
}
