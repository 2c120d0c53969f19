package pools

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

// Set groups the per-protocol fetchers of both variants.
type Set struct {
	fetchers map[Variant]map[domain.Protocol]*Fetcher
	logger   *zap.Logger
}

// NewSet creates a Set. A later fetcher for the same protocol and variant
// replaces an earlier one.
func NewSet(logger *zap.Logger, fetchers ...*Fetcher) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Set{
		fetchers: map[Variant]map[domain.Protocol]*Fetcher{
			Full: {},
			Lite: {},
		},
		logger: logger,
	}
	for _, f := range fetchers {
		s.fetchers[f.variant][f.protocol] = f
	}
	return s
}

type fetchResult struct {
	idx   int
	pools []domain.Pool
	err   error
}

// CommonPools fetches the pools of every enabled protocol concurrently and
// flattens them in protocol order. A failing protocol contributes nothing;
// an error is returned only when every enabled protocol failed.
func (s *Set) CommonPools(ctx context.Context, q domain.PoolQuery, variant Variant) ([]domain.Pool, error) {
	var enabled []*Fetcher
	for _, p := range q.Protocols.List() {
		if f, ok := s.fetchers[variant][p]; ok {
			enabled = append(enabled, f)
		}
	}
	if len(enabled) == 0 {
		return nil, nil
	}

	var wg sync.WaitGroup
	results := make(chan fetchResult, len(enabled))

	for i, f := range enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pools, err := f.Fetch(ctx, q)
			results <- fetchResult{idx: i, pools: pools, err: err}
		}()
	}

	wg.Wait()
	close(results)

	var (
		errs   error
		failed int
		byIdx  = make([][]domain.Pool, len(enabled))
	)
	for r := range results {
		if r.err != nil {
			failed++
			errs = multierr.Append(errs, r.err)
			s.logger.Warn("candidate pools unavailable",
				zap.String("protocol", enabled[r.idx].protocol.String()),
				zap.String("variant", variant.String()),
				zap.Error(r.err),
			)
			continue
		}
		byIdx[r.idx] = r.pools
	}

	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "pools.Set.CommonPools")
	}
	if failed == len(enabled) {
		return nil, &apperrors.FetchCandidatePoolsError{Cause: errs}
	}

	var out []domain.Pool
	for _, pools := range byIdx {
		out = append(out, pools...)
	}
	return out, nil
}
