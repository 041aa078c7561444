package domain

import "math/big"

type OpKind string

const (
	OpSwap            OpKind = "swap"
	OpAddLiquidity    OpKind = "add_liquidity"
	OpRemoveLiquidity OpKind = "remove_liquidity"
	OpUnknown         OpKind = "unknown"
)

// SwapIntent is the decoded trading intent behind a pending transaction.
// A transaction whose call data cannot be decoded carries Kind OpUnknown;
// such intents are skipped by swap-specific detectors but stay visible to
// generic ones.
type SwapIntent struct {
	TxHash       string   `json:"tx_hash"`
	Kind         OpKind   `json:"kind"`
	Router       string   `json:"router"`
	TokenIn      string   `json:"token_in"`
	TokenOut     string   `json:"token_out"`
	AmountIn     *big.Int `json:"amount_in"`
	MinAmountOut *big.Int `json:"min_amount_out"` // nil when the call carries no bound
}

// SamePair reports whether two intents trade the same token pair in the
// same direction.
func (s *SwapIntent) SamePair(o *SwapIntent) bool {
	return s.TokenIn == o.TokenIn && s.TokenOut == o.TokenOut
}

// InversePair reports whether o trades the same pair in the opposite
// direction (sells what s buys).
func (s *SwapIntent) InversePair(o *SwapIntent) bool {
	return s.TokenIn == o.TokenOut && s.TokenOut == o.TokenIn
}
