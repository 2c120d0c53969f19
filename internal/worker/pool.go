// Package worker runs CPU bound trade computations on a fixed set of
// goroutines. Requests and results cross the boundary as serialized bytes,
// so no live object is shared between a caller and a worker.
package worker

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/router"
)

// ErrStopped is returned for requests submitted after Stop.
var ErrStopped = errors.New("worker pool stopped")

const (
	codeNoRoute         = "no_route"
	codeInvalidArgument = "invalid_argument"
)

// Request is the serialized input of a computation.
type Request struct {
	Query domain.QuoteQuery `json:"query"`
	Pools []domain.Pool     `json:"pools"`
}

type response struct {
	Trade *domain.Trade `json:"trade,omitempty"`
	Code  string        `json:"code,omitempty"`
	Error string        `json:"error,omitempty"`
}

// ComputeFunc computes the best trade of a request inside a worker.
type ComputeFunc func(Request) (domain.Trade, error)

type job struct {
	ctx     context.Context
	payload []byte
	reply   chan []byte
}

// Pool is a fixed set of workers.
type Pool struct {
	workers int
	compute ComputeFunc
	logger  *zap.Logger

	jobs     chan job
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithCompute replaces the default router computation.
func WithCompute(fn ComputeFunc) Option {
	return func(p *Pool) {
		if fn != nil {
			p.compute = fn
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pool of n workers computing with r. Call Start before use.
func New(n int, r *router.Router, opts ...Option) *Pool {
	if n <= 0 {
		n = 1
	}
	if r == nil {
		r = router.New()
	}
	p := &Pool{
		workers: n,
		compute: func(req Request) (domain.Trade, error) {
			return r.BestTrade(req.Pools, req.Query)
		},
		logger: zap.NewNop(),
		jobs:   make(chan job),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers.
func (p *Pool) Start() {
	p.wg.Add(p.workers)
	for i := range p.workers {
		go p.run(i + 1)
	}
}

// Stop terminates the workers and waits for running jobs.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()

	for {
		select {
		case j := <-p.jobs:
			if j.ctx.Err() != nil {
				// the caller is gone
				continue
			}
			j.reply <- p.handle(id, j.payload)
		case <-p.quit:
			return
		}
	}
}

func (p *Pool) handle(id int, payload []byte) []byte {
	var resp response

	var req Request
	if err := sonic.Unmarshal(payload, &req); err != nil {
		resp.Code, resp.Error = codeInvalidArgument, err.Error()
	} else if trade, err := p.compute(req); err != nil {
		resp.Error = err.Error()
		switch {
		case errors.Is(err, router.ErrNoRoute):
			resp.Code = codeNoRoute
		case errors.Is(err, apperrors.ErrInvalidArgument):
			resp.Code = codeInvalidArgument
		}
	} else {
		resp.Trade = &trade
	}

	out, err := sonic.Marshal(resp)
	if err != nil {
		p.logger.Error("failed to encode worker response", zap.Int("worker", id), zap.Error(err))
		out, _ = sonic.Marshal(response{Error: err.Error()})
	}
	return out
}

// BestTrade computes the best trade of q over pools on a worker. It returns
// when the result is ready or ctx is done.
func (p *Pool) BestTrade(ctx context.Context, q domain.QuoteQuery, pools []domain.Pool) (domain.Trade, error) {
	payload, err := sonic.Marshal(Request{Query: q, Pools: pools})
	if err != nil {
		return domain.Trade{}, errors.Wrap(err, "sonic.Marshal")
	}

	j := job{ctx: ctx, payload: payload, reply: make(chan []byte, 1)}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return domain.Trade{}, ctx.Err()
	case <-p.quit:
		return domain.Trade{}, ErrStopped
	}

	var raw []byte
	select {
	case raw = <-j.reply:
	case <-ctx.Done():
		return domain.Trade{}, ctx.Err()
	}

	var resp response
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return domain.Trade{}, errors.Wrap(err, "sonic.Unmarshal")
	}

	switch {
	case resp.Trade != nil:
		return *resp.Trade, nil
	case resp.Code == codeNoRoute:
		return domain.Trade{}, errors.Wrap(router.ErrNoRoute, resp.Error)
	case resp.Code == codeInvalidArgument:
		return domain.Trade{}, errors.Wrap(apperrors.ErrInvalidArgument, resp.Error)
	default:
		return domain.Trade{}, errors.New(resp.Error)
	}
}
