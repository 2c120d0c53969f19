package router

import (
	"math/big"

	"github.com/fleshka4/smart-router/internal/dexmath"
	"github.com/fleshka4/smart-router/internal/domain"
)

// Calculator prices a swap through a single pool.
type Calculator interface {
	// AmountOut returns what selling amountIn of in yields.
	AmountOut(pool domain.Pool, in domain.Currency, amountIn *big.Int) (*big.Int, bool)
	// AmountIn returns what must be sold of in to receive amountOut.
	AmountIn(pool domain.Pool, in domain.Currency, amountOut *big.Int) (*big.Int, bool)
}

// ConstantProduct prices every pool as x*y=k on its (virtual) reserves.
type ConstantProduct struct{}

func (ConstantProduct) AmountOut(pool domain.Pool, in domain.Currency, amountIn *big.Int) (*big.Int, bool) {
	reserveIn, reserveOut := pool.Reserves(in)
	return dexmath.GetAmountOut(amountIn, reserveIn, reserveOut, pool.Fee)
}

func (ConstantProduct) AmountIn(pool domain.Pool, in domain.Currency, amountOut *big.Int) (*big.Int, bool) {
	reserveIn, reserveOut := pool.Reserves(in)
	return dexmath.GetAmountIn(amountOut, reserveIn, reserveOut, pool.Fee)
}
