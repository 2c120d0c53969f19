package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FeeDenominator is the scale of Pool.Fee (hundredths of a bip).
const FeeDenominator = 1_000_000

// Tick is an initialized tick (or bin) of a concentrated liquidity pool.
type Tick struct {
	Index        int32    `json:"index"`
	LiquidityNet *big.Int `json:"liquidityNet"`
}

// Pool is a candidate hop. For concentrated liquidity pools the reserves are
// the virtual reserves at the current price.
type Pool struct {
	Protocol Protocol       `json:"protocol"`
	Address  common.Address `json:"address"`
	Token0   Currency       `json:"token0"`
	Token1   Currency       `json:"token1"`
	Reserve0 *big.Int       `json:"reserve0"`
	Reserve1 *big.Int       `json:"reserve1"`
	Fee      uint32         `json:"fee"`

	// Ticks is omitted by lite fetches.
	Ticks []Tick `json:"ticks,omitempty"`
}

// Involves reports whether c is one of the pool's tokens.
func (p Pool) Involves(c Currency) bool {
	w := c.Wrapped()
	return p.Token0.Equal(w) || p.Token1.Equal(w)
}

// Other returns the token on the other side of c.
func (p Pool) Other(c Currency) Currency {
	if p.Token0.Equal(c.Wrapped()) {
		return p.Token1
	}
	return p.Token0
}

// Reserves returns (reserveIn, reserveOut) for a swap selling in.
func (p Pool) Reserves(in Currency) (*big.Int, *big.Int) {
	if p.Token0.Equal(in.Wrapped()) {
		return p.Reserve0, p.Reserve1
	}
	return p.Reserve1, p.Reserve0
}

// PoolRef identifies a pool inside a trade.
type PoolRef struct {
	Protocol Protocol       `json:"protocol"`
	Address  common.Address `json:"address"`
	Fee      uint32         `json:"fee"`
}

// Ref returns the reference of p.
func (p Pool) Ref() PoolRef {
	return PoolRef{Protocol: p.Protocol, Address: p.Address, Fee: p.Fee}
}
