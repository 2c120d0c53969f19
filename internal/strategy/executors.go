package strategy

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/infra/onchain"
	"github.com/fleshka4/smart-router/internal/pools"
	"github.com/fleshka4/smart-router/internal/router"
)

const (
	defaultQuoteConcurrency = 4
	defaultOnchainPaths     = 16
)

// Light computes a single hop, unsplit trade over lite pools of the direct pair.
type Light struct {
	pools   PoolSource
	compute TradeComputer
}

// NewLight creates a Light executor.
func NewLight(src PoolSource, compute TradeComputer) *Light {
	return &Light{pools: src, compute: compute}
}

// Execute implements Executor.
func (e *Light) Execute(ctx context.Context, req Request) (domain.Trade, error) {
	q := req.Query
	q.MaxHops, q.MaxSplits = 1, 0

	candidates, err := e.pools.CommonPools(ctx, q.PoolQuery(), pools.Lite)
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "strategy.Light.Execute")
	}
	if len(candidates) == 0 {
		return domain.Trade{}, apperrors.NewNoValidRoute("no lite pools for pair")
	}
	trade, err := e.compute.BestTrade(ctx, q, candidates)
	if err != nil {
		return domain.Trade{}, err
	}
	trade.Fingerprint = req.Fingerprint
	return trade, nil
}

// Offchain routes over the full pools of every pair combination through the
// chain's base tokens.
type Offchain struct {
	pools   PoolSource
	compute TradeComputer
}

// NewOffchain creates an Offchain executor.
func NewOffchain(src PoolSource, compute TradeComputer) *Offchain {
	return &Offchain{pools: src, compute: compute}
}

// Execute implements Executor.
func (e *Offchain) Execute(ctx context.Context, req Request) (domain.Trade, error) {
	candidates, err := e.pools.CandidatePools(ctx, req.Query.PoolQuery(), pools.Full)
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "strategy.Offchain.Execute")
	}
	if len(candidates) == 0 {
		return domain.Trade{}, apperrors.NewNoValidRoute("no candidate pools")
	}
	trade, err := e.compute.BestTrade(ctx, req.Query, candidates)
	if err != nil {
		return domain.Trade{}, err
	}
	trade.Fingerprint = req.Fingerprint
	return trade, nil
}

// API delegates to an external pricing service.
type API struct {
	quoter PriceQuoter
}

// NewAPI creates an API executor.
func NewAPI(quoter PriceQuoter) *API {
	return &API{quoter: quoter}
}

// Execute implements Executor.
func (e *API) Execute(ctx context.Context, req Request) (domain.Trade, error) {
	q := req.Query

	quote, err := e.quoter.Quote(ctx, q)
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "strategy.API.Execute")
	}
	if quote.AmountIn == nil || quote.AmountOut == nil || quote.AmountOut.Sign() <= 0 {
		return domain.Trade{}, apperrors.NewNoValidRoute("pricing api returned an empty amount")
	}

	in, out := q.CurrencyIn(), q.CurrencyOut()

	refs := make([]domain.PoolRef, 0, len(quote.Route))
	for _, hop := range quote.Route {
		p, err := domain.ParseProtocol(hop.Protocol)
		if err != nil {
			// unknown pools are still part of the route
			p = domain.ProtocolV2
		}
		refs = append(refs, domain.PoolRef{Protocol: p, Address: hop.Address, Fee: hop.Fee})
	}

	alloc := domain.RouteAllocation{
		Pools:     refs,
		Percent:   100,
		AmountIn:  quote.AmountIn,
		AmountOut: quote.AmountOut,
	}
	// the api reports pools only, intermediate currencies are unknown
	if len(refs) <= 1 {
		alloc.Path = []domain.Currency{in, out}
	}

	gas := quote.GasEstimate
	if gas == 0 && len(refs) > 0 {
		gas = router.EstimateGas([][]domain.PoolRef{refs})
	}

	return domain.Trade{
		TradeType:    q.TradeType,
		InputAmount:  domain.CurrencyAmount{Currency: in, Value: quote.AmountIn},
		OutputAmount: domain.CurrencyAmount{Currency: out, Value: quote.AmountOut},
		Routes:       []domain.RouteAllocation{alloc},
		GasEstimate:  gas,
		BlockNumber:  q.BlockNumber,
		Fingerprint:  req.Fingerprint,
	}, nil
}

// Onchain enumerates paths over full candidate pools and prices each of them
// with live on-chain quoter calls. Only paths of a single protocol can be
// quoted in one call; mixed paths are skipped.
type Onchain struct {
	pools       PoolSource
	quoter      PathQuoter
	concurrency int
	maxPaths    int
}

// OnchainOption configures an Onchain executor.
type OnchainOption func(*Onchain)

// WithQuoteConcurrency bounds the number of concurrent quoter calls.
func WithQuoteConcurrency(n int) OnchainOption {
	return func(e *Onchain) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMaxPaths bounds the number of quoted paths.
func WithMaxPaths(n int) OnchainOption {
	return func(e *Onchain) {
		if n > 0 {
			e.maxPaths = n
		}
	}
}

// NewOnchain creates an Onchain executor.
func NewOnchain(src PoolSource, quoter PathQuoter, opts ...OnchainOption) *Onchain {
	e := &Onchain{
		pools:       src,
		quoter:      quoter,
		concurrency: defaultQuoteConcurrency,
		maxPaths:    defaultOnchainPaths,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type pathResult struct {
	route router.Route
	quote onchain.PathQuote
}

// Execute implements Executor.
func (e *Onchain) Execute(ctx context.Context, req Request) (domain.Trade, error) {
	q := req.Query
	if q.Amount.IsZero() {
		return domain.Trade{}, errors.Wrap(apperrors.ErrInvalidArgument, "strategy.Onchain.Execute: amount")
	}

	candidates, err := e.pools.CandidatePools(ctx, q.PoolQuery(), pools.Full)
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "strategy.Onchain.Execute")
	}

	var routes []router.Route
	for _, r := range router.Routes(candidates, q.CurrencyIn(), q.CurrencyOut(), q.MaxHops, 0) {
		if homogeneous(r) {
			routes = append(routes, r)
		}
		if len(routes) == e.maxPaths {
			break
		}
	}
	if len(routes) == 0 {
		return domain.Trade{}, apperrors.NewNoValidRoute("no path quotable on chain")
	}

	results := make([]pathResult, len(routes))
	errs := make([]error, len(routes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, r := range routes {
		g.Go(func() error {
			pq, err := e.quoter.QuotePath(gctx, q.TradeType, r.Path, r.Refs(), q.Amount.Value, q.BlockNumber)
			results[i], errs[i] = pathResult{route: r, quote: pq}, err
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return domain.Trade{}, errors.Wrap(ctx.Err(), "strategy.Onchain.Execute")
	}

	best, ok := bestPath(results, errs, q.TradeType)
	if !ok {
		return domain.Trade{}, apperrors.NewNoValidRoute("every on-chain quote failed", errs...)
	}

	refs := best.route.Refs()
	gas := best.quote.GasEstimate
	if gas == 0 {
		gas = router.EstimateGas([][]domain.PoolRef{refs})
	}

	return domain.Trade{
		TradeType:    q.TradeType,
		InputAmount:  domain.CurrencyAmount{Currency: q.CurrencyIn(), Value: best.quote.AmountIn},
		OutputAmount: domain.CurrencyAmount{Currency: q.CurrencyOut(), Value: best.quote.AmountOut},
		Routes: []domain.RouteAllocation{{
			Path:      best.route.Path,
			Pools:     refs,
			Percent:   100,
			AmountIn:  best.quote.AmountIn,
			AmountOut: best.quote.AmountOut,
		}},
		GasEstimate: gas,
		BlockNumber: q.BlockNumber,
		Fingerprint: req.Fingerprint,
	}, nil
}

func homogeneous(r router.Route) bool {
	p := r.Pools[0].Protocol
	if p != domain.ProtocolV2 && p != domain.ProtocolV3 {
		return false
	}
	for _, pool := range r.Pools[1:] {
		if pool.Protocol != p {
			return false
		}
	}
	return true
}

// bestPath picks the best quoted path; ties keep the earlier path in
// enumeration order.
func bestPath(results []pathResult, errs []error, tradeType domain.TradeType) (pathResult, bool) {
	var (
		best  pathResult
		found bool
	)
	for i, r := range results {
		if errs[i] != nil || r.quote.AmountIn == nil || r.quote.AmountOut == nil {
			continue
		}
		if !found {
			best, found = r, true
			continue
		}
		if tradeType == domain.ExactInput && r.quote.AmountOut.Cmp(best.quote.AmountOut) > 0 ||
			tradeType == domain.ExactOutput && r.quote.AmountIn.Cmp(best.quote.AmountIn) < 0 {
			best = r
		}
	}
	return best, found
}
