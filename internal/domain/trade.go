package domain

import (
	"math/big"
	"strings"
)

const bpsDenominator = 10_000

// RouteAllocation is one leg of a (possibly split) trade.
type RouteAllocation struct {
	Path      []Currency `json:"path"`
	Pools     []PoolRef  `json:"pools"`
	Percent   int        `json:"percent"`
	AmountIn  *big.Int   `json:"amountIn"`
	AmountOut *big.Int   `json:"amountOut"`
}

// Trade is the outcome of a quote strategy.
type Trade struct {
	TradeType    TradeType         `json:"tradeType"`
	InputAmount  CurrencyAmount    `json:"inputAmount"`
	OutputAmount CurrencyAmount    `json:"outputAmount"`
	Routes       []RouteAllocation `json:"routes"`
	GasEstimate  uint64            `json:"gasEstimate"`

	// GasCostInQuote is the gas cost in the non-specified currency
	// (output for exact-in, input for exact-out). Nil means unknown.
	GasCostInQuote *big.Int `json:"gasCostInQuote,omitempty"`

	BlockNumber uint64 `json:"blockNumber,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Source      string `json:"source"`
}

// Hops returns the total number of pools used by the trade.
func (t Trade) Hops() int {
	n := 0
	for _, r := range t.Routes {
		n += len(r.Pools)
	}
	return n
}

// RouteKey is a canonical description of the pools the trade goes through.
func (t Trade) RouteKey() string {
	var b strings.Builder
	for i, r := range t.Routes {
		if i > 0 {
			b.WriteByte('|')
		}
		for j, p := range r.Pools {
			if j > 0 {
				b.WriteByte('>')
			}
			b.WriteString(p.Protocol.String())
			b.WriteByte(':')
			b.WriteString(strings.ToLower(p.Address.Hex()))
		}
	}
	return b.String()
}

// MinimumReceived is the output amount after slippage for exact-in trades;
// exact-out trades receive exactly their output.
func (t Trade) MinimumReceived(slippageBps uint32) *big.Int {
	if t.OutputAmount.Value == nil {
		return nil
	}
	if t.TradeType == ExactOutput {
		return new(big.Int).Set(t.OutputAmount.Value)
	}
	out := new(big.Int).Mul(t.OutputAmount.Value, big.NewInt(int64(bpsDenominator-min(slippageBps, bpsDenominator))))
	return out.Quo(out, big.NewInt(bpsDenominator))
}

// MaximumSold is the input amount after slippage for exact-out trades;
// exact-in trades sell exactly their input.
func (t Trade) MaximumSold(slippageBps uint32) *big.Int {
	if t.InputAmount.Value == nil {
		return nil
	}
	if t.TradeType == ExactInput {
		return new(big.Int).Set(t.InputAmount.Value)
	}
	in := new(big.Int).Mul(t.InputAmount.Value, big.NewInt(int64(bpsDenominator+slippageBps)))
	return in.Quo(in, big.NewInt(bpsDenominator))
}
