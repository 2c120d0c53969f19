package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/loadable"
	"github.com/fleshka4/smart-router/internal/metrics"
	"github.com/fleshka4/smart-router/internal/service/validate"
	"github.com/fleshka4/smart-router/internal/strategy"
)

const tracerName = "smart-router-quote"

// DefaultMaxNodes bounds the number of memoized computations.
const DefaultMaxNodes = 256

var tracer = otel.Tracer(tracerName)

// QuoteService runs the routing table of a chain for quote queries and
// memoizes one computation per query fingerprint.
type QuoteService struct {
	tables   *strategy.Tables
	logger   *zap.Logger
	maxNodes int

	mu    sync.Mutex
	nodes *lru.Cache[string, *node]
	// held keeps nodes evicted from nodes while they still have subscribers.
	held map[string]*node
}

// Option configures a QuoteService.
type Option func(*QuoteService)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *QuoteService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxNodes overrides DefaultMaxNodes.
func WithMaxNodes(n int) Option {
	return func(s *QuoteService) {
		if n > 0 {
			s.maxNodes = n
		}
	}
}

// NewQuoteService creates QuoteService.
func NewQuoteService(tables *strategy.Tables, opts ...Option) (*QuoteService, error) {
	if tables == nil {
		return nil, errors.Wrap(apperrors.ErrInvalidArgument, "service.NewQuoteService: nil tables")
	}

	s := &QuoteService{
		tables:   tables,
		logger:   zap.NewNop(),
		maxNodes: DefaultMaxNodes,
		held:     make(map[string]*node),
	}
	for _, opt := range opts {
		opt(s)
	}

	// the callback runs under s.mu
	nodes, err := lru.NewWithEvict[string, *node](s.maxNodes, func(fp string, n *node) {
		if n.idle() {
			n.abort()
			return
		}
		s.held[fp] = n
	})
	if err != nil {
		return nil, errors.Wrap(err, "lru.NewWithEvict")
	}
	s.nodes = nodes

	return s, nil
}

// Quote implements Service. Degenerate queries settle to an empty Loadable
// without running any strategy.
func (s *QuoteService) Quote(q domain.QuoteQuery) loadable.Loadable[*domain.Trade] {
	if err := validate.QuoteQueryValidate(q); err != nil {
		return loadable.Empty[*domain.Trade]()
	}
	return s.node(fingerprint.Quote(q), q, false).current()
}

// Subscribe implements Service. Dropping the last subscription of a running
// computation cancels it.
func (s *QuoteService) Subscribe(q domain.QuoteQuery, fn func(loadable.Loadable[*domain.Trade])) (string, func()) {
	fp := fingerprint.Quote(q)
	if err := validate.QuoteQueryValidate(q); err != nil {
		fn(loadable.Empty[*domain.Trade]())
		return fp, func() {}
	}

	n := s.node(fp, q, true)
	id := n.listen(fn)

	var once sync.Once
	return fp, func() {
		once.Do(func() {
			n.unlisten(id)
			switch idle, running := n.release(); {
			case running:
				s.drop(n)
			case idle:
				s.releaseHeld(n)
			}
		})
	}
}

// Wait implements Service.
func (s *QuoteService) Wait(ctx context.Context, q domain.QuoteQuery) loadable.Loadable[*domain.Trade] {
	if err := validate.QuoteQueryValidate(q); err != nil {
		return loadable.Empty[*domain.Trade]()
	}

	n := s.node(fingerprint.Quote(q), q, false)
	select {
	case <-n.done:
	case <-ctx.Done():
	}
	return n.current()
}

// Cancel implements Service.
func (s *QuoteService) Cancel(fp string) {
	s.mu.Lock()
	n, ok := s.nodes.Peek(fp)
	if ok {
		s.nodes.Remove(fp)
	} else {
		n, ok = s.held[fp]
	}
	delete(s.held, fp)
	s.updateActive()
	s.mu.Unlock()

	if ok {
		n.abort()
	}
}

// node returns the live computation of fp, starting a new one when there is
// none. With ref the caller holds a reference on it.
func (s *QuoteService) node(fp string, q domain.QuoteQuery, ref bool) *node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes.Get(fp)
	if !ok {
		if n, ok = s.held[fp]; ok {
			delete(s.held, fp)
			s.nodes.Add(fp, n)
		}
	}
	if !ok || n.aborted.Load() {
		n = newNode(fp, q)
		s.nodes.Add(fp, n)
		go s.run(n)
	}
	s.updateActive()
	if ref {
		n.acquire()
	}
	return n
}

func (s *QuoteService) drop(n *node) {
	n.abort()
	s.forget(n)
}

// releaseHeld forgets a settled node nobody references once it is only
// kept alive by its subscribers.
func (s *QuoteService) releaseHeld(n *node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.held[n.fp]; ok && cur == n && n.idle() {
		delete(s.held, n.fp)
		s.updateActive()
	}
}

// forget removes n from the memo unless another node took its place.
func (s *QuoteService) forget(n *node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.nodes.Peek(n.fp); ok && cur == n {
		s.nodes.Remove(n.fp)
	}
	if cur, ok := s.held[n.fp]; ok && cur == n {
		delete(s.held, n.fp)
	}
	s.updateActive()
}

func (s *QuoteService) updateActive() {
	metrics.ActiveQuotes.Set(float64(s.nodes.Len() + len(s.held)))
}

func (s *QuoteService) run(n *node) {
	defer n.cancel()

	tradeType := n.query.TradeType.String()
	start := time.Now()

	ctx, span := tracer.Start(n.ctx, "QuoteService.run", trace.WithAttributes(
		attribute.String("fingerprint", n.fp),
		attribute.String("trade_type", tradeType),
		attribute.Int64("chain_id", int64(n.query.ChainID)),
	))
	defer span.End()

	result := s.compute(ctx, n)

	status := "ok"
	switch err := result.Err(); {
	case err == nil:
	case apperrors.IsCancelled(err):
		status = "cancelled"
	default:
		status = "no_route"
		span.RecordError(err)
		span.SetStatus(codes.Error, "no valid route")
	}
	metrics.QuoteRequests.WithLabelValues(tradeType, status).Inc()
	metrics.QuoteDuration.WithLabelValues(tradeType).Observe(time.Since(start).Seconds())

	n.set(result)
}

// compute walks the tiers in priority order. A tier commits its best
// non-shadow trade once all of its routes settled; otherwise the next tier
// runs. Previews carry the best trade known so far, shadow included.
func (s *QuoteService) compute(ctx context.Context, n *node) loadable.Loadable[*domain.Trade] {
	tiers := s.tables.For(n.query.ChainID).Resolve()

	var (
		known  *domain.Trade
		causes []error
	)
	for i, tier := range tiers {
		if known != nil {
			n.set(loadable.WithPending(known))
		}

		out := s.runTier(ctx, n, i, tier, known)
		if ctx.Err() != nil {
			return loadable.Errored[*domain.Trade](errors.Wrap(apperrors.ErrCancelled, ctx.Err().Error()))
		}
		causes = append(causes, out.errs...)

		if out.commit != nil {
			metrics.TierCommits.WithLabelValues(strconv.Itoa(i)).Inc()
			s.logger.Debug("quote committed",
				zap.String("fingerprint", n.fp),
				zap.Int("tier", i),
				zap.String("source", out.commit.Source),
				zap.Stringer("output", out.commit.OutputAmount),
			)
			return loadable.Of(out.commit)
		}
		known = preferred(known, out.best)
	}

	s.logger.Info("no valid route",
		zap.String("fingerprint", n.fp),
		zap.Stringer("amount", n.query.Amount),
		zap.Stringer("currency", n.query.Currency),
		zap.Int("causes", len(causes)),
	)
	return loadable.Errored[*domain.Trade](apperrors.NewNoValidRoute("all strategy tiers exhausted", causes...))
}

type routeResult struct {
	idx   int
	trade domain.Trade
	err   error
}

type tierOutcome struct {
	commit *domain.Trade
	best   *domain.Trade
	errs   []error
}

func (s *QuoteService) runTier(ctx context.Context, n *node, idx int, tier []strategy.Route, known *domain.Trade) tierOutcome {
	ctx, span := tracer.Start(ctx, "QuoteService.tier", trace.WithAttributes(attribute.Int("tier", idx)))
	defer span.End()

	results := make([]loadable.Loadable[domain.Trade], len(tier))
	for i := range results {
		results[i] = loadable.Pending[domain.Trade]()
	}

	ch := make(chan routeResult, len(tier))
	for i, route := range tier {
		go func() {
			trade, err := route.Run(ctx, n.fp, n.query)
			ch <- routeResult{idx: i, trade: trade, err: err}
		}()
	}

	for range tier {
		var r routeResult
		select {
		case r = <-ch:
		case <-ctx.Done():
			return tierOutcome{}
		}

		if r.err != nil {
			results[r.idx] = loadable.Errored[domain.Trade](r.err)
			if !apperrors.IsCancelled(r.err) {
				s.logger.Debug("strategy produced no trade",
					zap.String("fingerprint", n.fp),
					zap.String("strategy", tier[r.idx].Name),
					zap.Error(r.err),
				)
			}
		} else {
			results[r.idx] = loadable.Of(r.trade)
		}

		merged := loadable.Merge(results, strategy.IsBetter)
		if !merged.Loading() {
			continue
		}
		if t, ok := merged.Unwrap(); ok {
			n.set(loadable.WithPending(preferred(known, &t)))
		}
	}

	var (
		out    tierOutcome
		all    []domain.Trade
		usable []domain.Trade
	)
	for i, route := range tier {
		if err := results[i].Err(); err != nil {
			out.errs = append(out.errs, err)
		}
		t, ok := results[i].Unwrap()
		if !ok {
			continue
		}
		all = append(all, t)
		if !route.Shadow {
			usable = append(usable, t)
		}
	}
	if t, ok := strategy.Best(usable); ok {
		out.commit = &t
	}
	if t, ok := strategy.Best(all); ok {
		out.best = &t
	}

	span.SetAttributes(
		attribute.Int("trades", len(all)),
		attribute.Bool("committed", out.commit != nil),
	)
	return out
}

// preferred returns the better of two trades, keeping a on a tie.
func preferred(a, b *domain.Trade) *domain.Trade {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case strategy.IsBetter(*b, *a):
		return b
	default:
		return a
	}
}
