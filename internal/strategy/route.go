package strategy

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/metrics"
)

// Route is one entry of a routing table.
type Route struct {
	Name     string
	Executor Executor

	// Overrides replace query fields for this route only.
	Overrides fingerprint.Overrides

	// Shadow results are previews; they never settle a quote alone.
	Shadow bool

	// Priority orders tiers, lower runs first.
	Priority int
}

// Query returns q with the route overrides applied.
func (r Route) Query(q domain.QuoteQuery) domain.QuoteQuery {
	if r.Overrides.MaxHops != nil {
		q.MaxHops = *r.Overrides.MaxHops
	}
	if r.Overrides.MaxSplits != nil {
		q.MaxSplits = *r.Overrides.MaxSplits
	}
	return q
}

// Fingerprint returns the key of this route's run for a quote fingerprint.
func (r Route) Fingerprint(quote string) string {
	return fingerprint.Strategy(quote, r.Name, r.Overrides)
}

// Run executes the route for the quote identified by quoteFP. The trade is
// stamped with quoteFP and the route name. Errors are one of
// NoValidRouteError, FetchCandidatePoolsError or a context error.
func (r Route) Run(ctx context.Context, quoteFP string, q domain.QuoteQuery) (domain.Trade, error) {
	start := time.Now()

	trade, err := r.Executor.Execute(ctx, Request{Query: r.Query(q), Fingerprint: quoteFP})
	err = classify(ctx, r.Name, err)

	metrics.StrategyDuration.WithLabelValues(r.Name).Observe(time.Since(start).Seconds())
	metrics.StrategyOutcomes.WithLabelValues(r.Name, outcome(err)).Inc()

	if err != nil {
		return domain.Trade{}, err
	}

	trade.Fingerprint = quoteFP
	trade.Source = r.Name
	return trade, nil
}

func classify(ctx context.Context, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errors.Wrap(ctx.Err(), name)
	case errors.Is(err, context.Canceled),
		apperrors.IsNoValidRoute(err),
		apperrors.IsFetchCandidatePools(err):
		return err
	default:
		return apperrors.NewNoValidRoute(name, err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.IsCancelled(err):
		return "cancelled"
	case apperrors.IsFetchCandidatePools(err):
		return "pools_error"
	default:
		return "no_route"
	}
}
