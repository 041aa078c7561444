// Package normalize decodes raw pending transactions into typed swap
// intents. Decoding is total: call data the decoder does not recognize
// yields an intent of kind OpUnknown, never an error, so detectors can rely
// on every observed transaction having exactly one intent.
package normalize

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

const wordSize = 32

// Normalize decodes a pending transaction into a SwapIntent. It is pure and
// side-effect free; the same transaction always yields the same intent.
func Normalize(tx *domain.PendingTransaction) *domain.SwapIntent {
	intent := &domain.SwapIntent{
		TxHash: tx.Hash,
		Kind:   domain.OpUnknown,
		Router: strings.ToLower(tx.To),
	}

	sel := tx.Selector()
	if sel == nil {
		return intent
	}
	args := tx.Input[4:]

	switch hex.EncodeToString(sel) {
	case selSwapExactTokensForTokens, selSwapExactTokensForETH:
		// (amountIn, amountOutMin, path, to, deadline)
		amountIn, ok1 := wordBig(args, 0)
		minOut, ok2 := wordBig(args, 1)
		path, ok3 := readPath(args, 2)
		if !ok1 || !ok2 || !ok3 {
			return intent
		}
		intent.Kind = domain.OpSwap
		intent.AmountIn = amountIn
		intent.MinAmountOut = minOut
		intent.TokenIn = path[0]
		intent.TokenOut = path[len(path)-1]

	case selSwapTokensForExactTokens:
		// (amountOut, amountInMax, path, to, deadline)
		amountOut, ok1 := wordBig(args, 0)
		amountInMax, ok2 := wordBig(args, 1)
		path, ok3 := readPath(args, 2)
		if !ok1 || !ok2 || !ok3 {
			return intent
		}
		intent.Kind = domain.OpSwap
		intent.AmountIn = amountInMax
		intent.MinAmountOut = amountOut
		intent.TokenIn = path[0]
		intent.TokenOut = path[len(path)-1]

	case selSwapExactETHForTokens:
		// (amountOutMin, path, to, deadline); amount in is the tx value
		minOut, ok1 := wordBig(args, 0)
		path, ok2 := readPath(args, 1)
		if !ok1 || !ok2 {
			return intent
		}
		intent.Kind = domain.OpSwap
		intent.AmountIn = cloneBig(tx.Value)
		intent.MinAmountOut = minOut
		intent.TokenIn = path[0]
		intent.TokenOut = path[len(path)-1]

	case selAddLiquidity:
		// (tokenA, tokenB, amountADesired, amountBDesired, ...)
		tokenA, ok1 := wordAddr(args, 0)
		tokenB, ok2 := wordAddr(args, 1)
		amountA, ok3 := wordBig(args, 2)
		if !ok1 || !ok2 || !ok3 {
			return intent
		}
		intent.Kind = domain.OpAddLiquidity
		intent.TokenIn = tokenA
		intent.TokenOut = tokenB
		intent.AmountIn = amountA

	case selAddLiquidityETH:
		// (token, amountTokenDesired, ...); ETH side is the tx value
		token, ok1 := wordAddr(args, 0)
		amount, ok2 := wordBig(args, 1)
		if !ok1 || !ok2 {
			return intent
		}
		intent.Kind = domain.OpAddLiquidity
		intent.TokenIn = token
		intent.AmountIn = amount

	case selRemoveLiquidity:
		// (tokenA, tokenB, liquidity, ...)
		tokenA, ok1 := wordAddr(args, 0)
		tokenB, ok2 := wordAddr(args, 1)
		liquidity, ok3 := wordBig(args, 2)
		if !ok1 || !ok2 || !ok3 {
			return intent
		}
		intent.Kind = domain.OpRemoveLiquidity
		intent.TokenIn = tokenA
		intent.TokenOut = tokenB
		intent.AmountIn = liquidity

	case selRemoveLiquidityETH:
		token, ok1 := wordAddr(args, 0)
		liquidity, ok2 := wordBig(args, 1)
		if !ok1 || !ok2 {
			return intent
		}
		intent.Kind = domain.OpRemoveLiquidity
		intent.TokenIn = token
		intent.AmountIn = liquidity
	}

	return intent
}

// word returns the i-th 32-byte argument word.
func word(args []byte, i int) ([]byte, bool) {
	start := i * wordSize
	if start+wordSize > len(args) {
		return nil, false
	}
	return args[start : start+wordSize], true
}

func wordBig(args []byte, i int) (*big.Int, bool) {
	w, ok := word(args, i)
	if !ok {
		return nil, false
	}
	return new(big.Int).SetBytes(w), true
}

// wordAddr reads an address argument (right-aligned in its word).
func wordAddr(args []byte, i int) (string, bool) {
	w, ok := word(args, i)
	if !ok {
		return "", false
	}
	return "0x" + hex.EncodeToString(w[wordSize-20:]), true
}

// readPath reads an address[] argument whose offset is stored in word i.
func readPath(args []byte, i int) ([]string, bool) {
	offset, ok := wordBig(args, i)
	if !ok || !offset.IsUint64() {
		return nil, false
	}
	base := int(offset.Uint64())
	if base%wordSize != 0 || base+wordSize > len(args) {
		return nil, false
	}

	length := new(big.Int).SetBytes(args[base : base+wordSize])
	if !length.IsUint64() {
		return nil, false
	}
	n := int(length.Uint64())
	if n == 0 || n > 8 || base+wordSize*(n+1) > len(args) {
		return nil, false
	}

	path := make([]string, n)
	for j := 0; j < n; j++ {
		start := base + wordSize*(j+1)
		path[j] = "0x" + hex.EncodeToString(args[start+wordSize-20:start+wordSize])
	}
	return path, true
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
