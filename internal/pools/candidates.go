package pools

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

const maxPairFetches = 8

// PairCombinations returns the unordered pairs a route from a to b may
// use: a-b, a-base, base-b and base-base. Natives are wrapped and
// duplicates dropped.
func PairCombinations(a, b domain.Currency, bases []domain.Currency) [][2]domain.Currency {
	a, b = a.Wrapped(), b.Wrapped()

	var (
		out  [][2]domain.Currency
		seen = make(map[[2]domain.Currency]struct{})
	)
	add := func(x, y domain.Currency) {
		if x.Equal(y) {
			return
		}
		x, y = domain.SortedPair(x, y)
		k := [2]domain.Currency{{ChainID: x.ChainID, Address: x.Address}, {ChainID: y.ChainID, Address: y.Address}}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, [2]domain.Currency{x, y})
	}

	add(a, b)
	for _, base := range bases {
		add(a, base)
		add(base, b)
	}
	for i, x := range bases {
		for _, y := range bases[i+1:] {
			add(x, y)
		}
	}
	return out
}

// CandidatePools fetches the pools of every pair combination between
// q.CurrencyA and q.CurrencyB through the chain's base tokens. Pools are
// deduplicated by protocol and address. Failed pairs are skipped; it fails
// only when every pair failed.
func (s *Set) CandidatePools(ctx context.Context, q domain.PoolQuery, variant Variant) ([]domain.Pool, error) {
	pairs := PairCombinations(q.CurrencyA, q.CurrencyB, domain.BaseTokens[q.ChainID])
	if len(pairs) == 0 {
		return nil, nil
	}

	results := make([][]domain.Pool, len(pairs))
	errs := make([]error, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPairFetches)
	for i, pair := range pairs {
		g.Go(func() error {
			pq := q
			pq.CurrencyA, pq.CurrencyB = pair[0], pair[1]
			results[i], errs[i] = s.CommonPools(gctx, pq, variant)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "pools.Set.CandidatePools")
	}

	var (
		out     []domain.Pool
		failed  error
		nFailed int
		seen    = make(map[domain.PoolRef]struct{})
	)
	for i, pools := range results {
		if errs[i] != nil {
			nFailed++
			failed = multierr.Append(failed, errs[i])
			continue
		}
		for _, p := range pools {
			ref := domain.PoolRef{Protocol: p.Protocol, Address: p.Address}
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, p)
		}
	}
	if nFailed == len(pairs) {
		return nil, &apperrors.FetchCandidatePoolsError{Cause: failed}
	}
	return out, nil
}
