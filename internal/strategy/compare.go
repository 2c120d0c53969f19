package strategy

import (
	"math/big"

	"github.com/fleshka4/smart-router/internal/domain"
)

// IsBetter reports whether a is strictly better than b. Trades are compared
// by, in order:
//
//  1. net value: output minus gas cost for exact-in, input plus gas cost
//     for exact-out (gas cost counts as zero when unknown);
//  2. lower gas estimate;
//  3. fewer hops;
//  4. smaller route key.
//
// Trades equal on every criterion are not better than each other.
func IsBetter(a, b domain.Trade) bool {
	if c := compareNet(a, b); c != 0 {
		return c > 0
	}
	if a.GasEstimate != b.GasEstimate {
		return a.GasEstimate < b.GasEstimate
	}
	if ha, hb := a.Hops(), b.Hops(); ha != hb {
		return ha < hb
	}
	return a.RouteKey() < b.RouteKey()
}

// compareNet is positive when a has the better net value.
func compareNet(a, b domain.Trade) int {
	if a.TradeType == domain.ExactOutput {
		return net(b.InputAmount.Value, b.GasCostInQuote, 1).Cmp(net(a.InputAmount.Value, a.GasCostInQuote, 1))
	}
	return net(a.OutputAmount.Value, a.GasCostInQuote, -1).Cmp(net(b.OutputAmount.Value, b.GasCostInQuote, -1))
}

func net(amount, gas *big.Int, sign int) *big.Int {
	v := new(big.Int)
	if amount != nil {
		v.Set(amount)
	}
	if gas != nil {
		if sign < 0 {
			v.Sub(v, gas)
		} else {
			v.Add(v, gas)
		}
	}
	return v
}

// Best returns the best of trades. The first trade is kept unless a later one
// is strictly better, so the result only depends on the order of trades.
func Best(trades []domain.Trade) (domain.Trade, bool) {
	if len(trades) == 0 {
		return domain.Trade{}, false
	}
	best := trades[0]
	for _, t := range trades[1:] {
		if IsBetter(t, best) {
			best = t
		}
	}
	return best, true
}
