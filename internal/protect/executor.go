package protect

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// QuoteExecutor settles a revealed swap at the provider's current quote.
// The reveal checks have already bounded the quote against the committed
// minimum, so the realized output is the quoted output; a swap that would
// land under the committed bound is refused here as the final gate.
type QuoteExecutor struct {
	price PriceSource
	log   *slog.Logger
}

func NewQuoteExecutor(price PriceSource, log *slog.Logger) *QuoteExecutor {
	return &QuoteExecutor{price: price, log: log.With("component", "executor")}
}

func (e *QuoteExecutor) ExecuteSwap(ctx context.Context, p *domain.SwapParams) (*big.Int, error) {
	out, err := e.price.Quote(ctx, p.TokenIn, p.TokenOut, p.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("settlement quote: %w", err)
	}
	if p.MinAmountOut != nil && out.Cmp(p.MinAmountOut) < 0 {
		return nil, fmt.Errorf("settlement below committed minimum: %s < %s", out, p.MinAmountOut)
	}

	e.log.Info("swap executed",
		"sender", p.Sender,
		"token_in", p.TokenIn,
		"token_out", p.TokenOut,
		"amount_in", p.AmountIn,
		"realized_out", out)
	return out, nil
}
