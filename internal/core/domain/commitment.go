package domain

import (
	"math/big"
	"time"
)

// SwapParams are the hidden parameters of a protected swap. Their keccak
// hash (together with the owner's nonce) is the commitment identity; any
// single-field change produces a different hash.
type SwapParams struct {
	Sender       string   `json:"sender"`
	TokenIn      string   `json:"token_in"`
	TokenOut     string   `json:"token_out"`
	AmountIn     *big.Int `json:"amount_in"`
	MinAmountOut *big.Int `json:"min_amount_out"`
	Deadline     int64    `json:"deadline"` // unix seconds
	Nonce        uint64   `json:"nonce"`
}

// ProtectedSwapCommitment is one entry of the commit-reveal table.
// Mutated only by the owner's reveal (or deleted by the owner's cancel);
// Executed transitions false→true exactly once and is never reset.
type ProtectedSwapCommitment struct {
	Hash          string      `json:"hash"`
	Owner         string      `json:"owner"`
	CreatedBlock  uint64      `json:"created_block"`
	EarliestBlock uint64      `json:"earliest_block"` // created block + commit delay
	Deadline      time.Time   `json:"deadline"`
	Revealed      *SwapParams `json:"revealed,omitempty"` // nil until reveal
	Executed      bool        `json:"executed"`
	RealizedOut   *big.Int    `json:"realized_out,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}
