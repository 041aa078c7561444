package domain

import (
	"math/big"
	"time"
)

// PendingTransaction is a raw transaction as observed from the node feed,
// either still in the mempool or part of a recently finalized block.
// Immutable once observed; identified by Hash within an observation window.
type PendingTransaction struct {
	Hash        string    `json:"hash"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       *big.Int  `json:"value"`
	GasPrice    *big.Int  `json:"gas_price"`
	GasLimit    uint64    `json:"gas_limit"`
	Input       []byte    `json:"input"`
	BlockNumber uint64    `json:"block_number"` // 0 while pending
	Index       int       `json:"index"`        // position within the block, -1 while pending
	Pending     bool      `json:"pending"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Selector returns the 4-byte function selector of the call data, or nil
// for plain transfers and malformed inputs.
func (t *PendingTransaction) Selector() []byte {
	if len(t.Input) < 4 {
		return nil
	}
	return t.Input[:4]
}
