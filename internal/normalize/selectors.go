package normalize

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// selector returns the first 4 bytes of the keccak-256 hash of a function
// signature, hex-encoded without prefix.
func selector(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var out [32]byte
	h.Sum(out[:0])
	return hex.EncodeToString(out[:4])
}

// Router function selectors (Uniswap V2 style, shared by the common forks).
var (
	selSwapExactTokensForTokens = selector("swapExactTokensForTokens(uint256,uint256,address[],address,uint256)")
	selSwapTokensForExactTokens = selector("swapTokensForExactTokens(uint256,uint256,address[],address,uint256)")
	selSwapExactETHForTokens    = selector("swapExactETHForTokens(uint256,address[],address,uint256)")
	selSwapExactTokensForETH    = selector("swapExactTokensForETH(uint256,uint256,address[],address,uint256)")
	selAddLiquidity             = selector("addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)")
	selAddLiquidityETH          = selector("addLiquidityETH(address,uint256,uint256,uint256,address,uint256)")
	selRemoveLiquidity          = selector("removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)")
	selRemoveLiquidityETH       = selector("removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)")
)
