// Package strategy holds the quote strategy executors and the routing table
// that orders them into priority tiers.
package strategy

import (
	"context"
	"math/big"

	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/infra/onchain"
	"github.com/fleshka4/smart-router/internal/infra/pricing"
	"github.com/fleshka4/smart-router/internal/pools"
)

// Request is the input of an executor. Fingerprint identifies the quote
// request the resulting trade belongs to; executors stamp it on their trades.
type Request struct {
	Query       domain.QuoteQuery
	Fingerprint string
}

// Executor computes a trade for a request.
type Executor interface {
	Execute(ctx context.Context, req Request) (domain.Trade, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (domain.Trade, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (domain.Trade, error) {
	return f(ctx, req)
}

// PoolSource provides candidate pools.
type PoolSource interface {
	CommonPools(ctx context.Context, q domain.PoolQuery, variant pools.Variant) ([]domain.Pool, error)
	CandidatePools(ctx context.Context, q domain.PoolQuery, variant pools.Variant) ([]domain.Pool, error)
}

// TradeComputer finds the best trade over a set of pools.
type TradeComputer interface {
	BestTrade(ctx context.Context, q domain.QuoteQuery, pools []domain.Pool) (domain.Trade, error)
}

// PriceQuoter asks an external aggregator for a quote.
type PriceQuoter interface {
	Quote(ctx context.Context, q domain.QuoteQuery) (pricing.Quote, error)
}

// PathQuoter prices a single path with live on-chain calls.
type PathQuoter interface {
	QuotePath(
		ctx context.Context,
		tradeType domain.TradeType,
		path []domain.Currency,
		pools []domain.PoolRef,
		amount *big.Int,
		block uint64,
	) (onchain.PathQuote, error)
}
