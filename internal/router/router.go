// Package router computes the best trade over a set of candidate pools
// entirely off chain: path enumeration, optional split across pool-disjoint
// paths, and exact-in or exact-out pricing through a pluggable Calculator.
package router

import (
	"math/big"
	"slices"

	"github.com/pkg/errors"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

// DefaultSplitSteps is the granularity of split allocation (5% chunks).
const DefaultSplitSteps = 20

// ErrNoRoute is returned when no path can carry the amount.
var ErrNoRoute = errors.New("no route between currencies")

// Router finds trades over candidate pools.
type Router struct {
	calc      Calculator
	steps     int
	maxRoutes int
}

// Option configures a Router.
type Option func(*Router)

// WithCalculator replaces the constant product calculator.
func WithCalculator(c Calculator) Option {
	return func(r *Router) {
		if c != nil {
			r.calc = c
		}
	}
}

// WithSplitSteps sets the number of chunks a split trade is built from.
func WithSplitSteps(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.steps = n
		}
	}
}

// WithMaxRoutes caps path enumeration.
func WithMaxRoutes(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxRoutes = n
		}
	}
}

// New creates a Router.
func New(opts ...Option) *Router {
	r := &Router{
		calc:      ConstantProduct{},
		steps:     DefaultSplitSteps,
		maxRoutes: DefaultMaxRoutes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type leg struct {
	route     int
	parts     int
	amountIn  *big.Int
	amountOut *big.Int
}

type candidate struct {
	legs     []leg
	totalIn  *big.Int
	totalOut *big.Int
}

// BestTrade returns the best trade for q over pools, using at most
// q.MaxHops pools per path and q.MaxSplits additional paths.
func (r *Router) BestTrade(pools []domain.Pool, q domain.QuoteQuery) (domain.Trade, error) {
	if q.Amount.IsZero() {
		return domain.Trade{}, errors.Wrap(apperrors.ErrInvalidArgument, "router.BestTrade: amount")
	}

	in, out := q.CurrencyIn(), q.CurrencyOut()
	routes := Routes(pools, in, out, q.MaxHops, r.maxRoutes)
	if len(routes) == 0 {
		return domain.Trade{}, ErrNoRoute
	}

	exactIn := q.TradeType == domain.ExactInput

	best, ok := r.bestSingle(routes, q.Amount.Value, exactIn)
	if q.MaxSplits > 0 && len(routes) > 1 {
		if split, splitOK := r.bestSplit(routes, q.Amount.Value, exactIn, q.MaxSplits+1); splitOK {
			if !ok || better(split, best, exactIn) {
				best, ok = split, true
			}
		}
	}
	if !ok {
		return domain.Trade{}, ErrNoRoute
	}

	return r.trade(q, routes, best), nil
}

func better(a, b candidate, exactIn bool) bool {
	if exactIn {
		if c := a.totalOut.Cmp(b.totalOut); c != 0 {
			return c > 0
		}
	} else {
		if c := a.totalIn.Cmp(b.totalIn); c != 0 {
			return c < 0
		}
	}
	// fewer legs cost less gas
	return len(a.legs) < len(b.legs)
}

func (r *Router) quote(route Route, amount *big.Int, exactIn bool) (*big.Int, bool) {
	if exactIn {
		cur := amount
		for i, pool := range route.Pools {
			next, ok := r.calc.AmountOut(pool, route.Path[i], cur)
			if !ok {
				return nil, false
			}
			cur = next
		}
		return cur, true
	}

	cur := amount
	for i := len(route.Pools) - 1; i >= 0; i-- {
		next, ok := r.calc.AmountIn(route.Pools[i], route.Path[i], cur)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (r *Router) bestSingle(routes []Route, amount *big.Int, exactIn bool) (candidate, bool) {
	var (
		best  candidate
		found bool
	)
	for i, route := range routes {
		v, ok := r.quote(route, amount, exactIn)
		if !ok {
			continue
		}
		amount := new(big.Int).Set(amount)
		c := candidate{legs: []leg{{route: i, parts: r.steps}}}
		if exactIn {
			c.totalIn, c.totalOut = amount, v
			c.legs[0].amountIn, c.legs[0].amountOut = amount, v
		} else {
			c.totalIn, c.totalOut = v, amount
			c.legs[0].amountIn, c.legs[0].amountOut = v, amount
		}
		if !found || better(c, best, exactIn) {
			best, found = c, true
		}
	}
	return best, found
}

// bestSplit allocates amount chunk by chunk to the path with the best
// marginal result. New paths must not share pools with paths in use.
func (r *Router) bestSplit(routes []Route, amount *big.Int, exactIn bool, maxLegs int) (candidate, bool) {
	steps := big.NewInt(int64(r.steps))
	partAmount := func(k int) *big.Int {
		v := new(big.Int).Mul(amount, big.NewInt(int64(k)))
		return v.Quo(v, steps)
	}

	parts := make([]int, len(routes))
	values := make([]*big.Int, len(routes))
	var active []int

	for range r.steps {
		bestRoute := -1
		var bestValue, bestDelta *big.Int

		for i, route := range routes {
			if parts[i] == 0 {
				if len(active) >= maxLegs || sharesAny(routes, active, i) {
					continue
				}
			}
			v, ok := r.quote(route, partAmount(parts[i]+1), exactIn)
			if !ok {
				continue
			}
			delta := new(big.Int).Set(v)
			if values[i] != nil {
				delta.Sub(delta, values[i])
			}
			if bestRoute < 0 ||
				(exactIn && delta.Cmp(bestDelta) > 0) ||
				(!exactIn && delta.Cmp(bestDelta) < 0) {
				bestRoute, bestValue, bestDelta = i, v, delta
			}
		}
		if bestRoute < 0 {
			return candidate{}, false
		}
		if parts[bestRoute] == 0 {
			active = append(active, bestRoute)
		}
		parts[bestRoute]++
		values[bestRoute] = bestValue
	}

	// chunks round down; the largest leg takes the remainder
	largest := active[0]
	for _, i := range active {
		if parts[i] > parts[largest] {
			largest = i
		}
	}
	allocated := new(big.Int)
	for _, i := range active {
		if i != largest {
			allocated.Add(allocated, partAmount(parts[i]))
		}
	}

	c := candidate{totalIn: new(big.Int), totalOut: new(big.Int)}
	for _, i := range sortedInts(active) {
		amt := partAmount(parts[i])
		if i == largest {
			amt = new(big.Int).Sub(amount, allocated)
		}
		v, ok := r.quote(routes[i], amt, exactIn)
		if !ok {
			return candidate{}, false
		}
		l := leg{route: i, parts: parts[i]}
		if exactIn {
			l.amountIn, l.amountOut = amt, v
		} else {
			l.amountIn, l.amountOut = v, amt
		}
		c.totalIn.Add(c.totalIn, l.amountIn)
		c.totalOut.Add(c.totalOut, l.amountOut)
		c.legs = append(c.legs, l)
	}
	return c, true
}

func sharesAny(routes []Route, active []int, i int) bool {
	for _, a := range active {
		if routes[a].shares(routes[i]) {
			return true
		}
	}
	return false
}

func sortedInts(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return out
}

func (r *Router) trade(q domain.QuoteQuery, routes []Route, c candidate) domain.Trade {
	allocs := make([]domain.RouteAllocation, len(c.legs))
	refs := make([][]domain.PoolRef, len(c.legs))

	percentLeft := 100
	for i, l := range c.legs {
		route := routes[l.route]
		pct := l.parts * 100 / r.steps
		if i == len(c.legs)-1 {
			pct = percentLeft
		}
		percentLeft -= pct

		refs[i] = route.Refs()
		allocs[i] = domain.RouteAllocation{
			Path:      route.Path,
			Pools:     refs[i],
			Percent:   pct,
			AmountIn:  l.amountIn,
			AmountOut: l.amountOut,
		}
	}

	return domain.Trade{
		TradeType:    q.TradeType,
		InputAmount:  domain.CurrencyAmount{Currency: q.CurrencyIn(), Value: c.totalIn},
		OutputAmount: domain.CurrencyAmount{Currency: q.CurrencyOut(), Value: c.totalOut},
		Routes:       allocs,
		GasEstimate:  EstimateGas(refs),
		BlockNumber:  q.BlockNumber,
	}
}
