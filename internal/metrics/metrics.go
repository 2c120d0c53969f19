package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool cache metrics
	PoolCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_pool_cache_hits_total",
			Help: "Total number of candidate pool cache hits",
		},
		[]string{"protocol", "variant"},
	)

	PoolCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_pool_cache_misses_total",
			Help: "Total number of candidate pool cache misses",
		},
		[]string{"protocol", "variant"},
	)

	PoolFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_pool_fetch_errors_total",
			Help: "Total number of failed upstream pool fetches",
		},
		[]string{"protocol", "variant"},
	)

	// Strategy metrics
	StrategyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_strategy_outcomes_total",
			Help: "Total number of strategy runs by outcome",
		},
		[]string{"strategy", "outcome"},
	)

	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smart_router_strategy_duration_seconds",
			Help:    "Strategy execution duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		},
		[]string{"strategy"},
	)

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_quote_requests_total",
			Help: "Total number of quote computations by status",
		},
		[]string{"trade_type", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smart_router_quote_duration_seconds",
			Help:    "Quote computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trade_type"},
	)

	TierCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_router_tier_commits_total",
			Help: "Total number of quotes committed per strategy tier",
		},
		[]string{"tier"},
	)

	ActiveQuotes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smart_router_active_quotes",
		Help: "Number of memoized quote computations",
	})

	// Session metrics
	Revalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smart_router_revalidations_total",
		Help: "Total number of nonce bumps",
	})
)
