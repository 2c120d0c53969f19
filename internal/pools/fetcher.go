package pools

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/metrics"
)

// DefaultFetchTimeout bounds a single upstream fetch.
const DefaultFetchTimeout = 15 * time.Second

// Fetcher loads the pools of one protocol through the cache.
type Fetcher struct {
	protocol domain.Protocol
	variant  Variant
	provider Provider
	cache    *Cache

	timeout time.Duration
	logger  *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout overrides DefaultFetchTimeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithLogger sets the logger used for degraded lite fetches.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFetcher creates a fetcher. A nil provider yields empty results.
func NewFetcher(protocol domain.Protocol, variant Variant, provider Provider, cache *Cache, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		protocol: protocol,
		variant:  variant,
		provider: provider,
		cache:    cache,
		timeout:  DefaultFetchTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFetchers returns a full and a lite fetcher for every protocol in
// domain.Protocols, all sharing provider and cache.
func NewFetchers(provider Provider, cache *Cache, opts ...FetcherOption) []*Fetcher {
	fetchers := make([]*Fetcher, 0, 2*len(domain.Protocols))
	for _, protocol := range domain.Protocols {
		for _, variant := range []Variant{Full, Lite} {
			fetchers = append(fetchers, NewFetcher(protocol, variant, provider, cache, opts...))
		}
	}
	return fetchers
}

// Protocol returns the protocol served by f.
func (f *Fetcher) Protocol() domain.Protocol { return f.protocol }

// Variant returns the variant served by f.
func (f *Fetcher) Variant() Variant { return f.variant }

// Fetch returns the pools of f's protocol for q. Disabled protocols return
// nothing without calling upstream. Full fetchers fail with
// *apperrors.FetchCandidatePoolsError; lite fetchers log and return nothing.
func (f *Fetcher) Fetch(ctx context.Context, q domain.PoolQuery) ([]domain.Pool, error) {
	if !q.Protocols.Has(f.protocol) || f.provider == nil {
		return nil, nil
	}

	// the key only depends on this fetcher's protocol
	q.Protocols = domain.NewProtocolSet(f.protocol)
	key := fingerprint.Pool(q) + ":" + f.protocol.String() + ":" + f.variant.String()

	labels := []string{f.protocol.String(), f.variant.String()}

	pools, hit, err := f.cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]domain.Pool, error) {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		return f.provider.GetPools(ctx, f.protocol, q, f.variant == Full)
	})
	if hit {
		metrics.PoolCacheHits.WithLabelValues(labels...).Inc()
	} else {
		metrics.PoolCacheMisses.WithLabelValues(labels...).Inc()
	}
	if err == nil {
		return pools, nil
	}

	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "pools.Fetcher.Fetch")
	}

	metrics.PoolFetchErrors.WithLabelValues(labels...).Inc()

	if f.variant == Lite {
		f.logger.Warn("lite pool fetch degraded to empty",
			zap.String("protocol", f.protocol.String()),
			zap.Error(err),
		)
		return nil, nil
	}

	return nil, &apperrors.FetchCandidatePoolsError{
		Protocol: f.protocol.String(),
		Cause:    errors.Wrap(err, "pools.Fetcher.Fetch"),
	}
}
