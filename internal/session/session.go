// Package session tracks the active quote request of one caller. Results of
// superseded requests are never delivered, and the active request is
// periodically recomputed by bumping its nonce.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/loadable"
	"github.com/fleshka4/smart-router/internal/metrics"
	"github.com/fleshka4/smart-router/internal/service"
)

const (
	// DefaultInterval is how often the revalidation loop checks the active request.
	DefaultInterval = time.Second
	// DefaultThreshold is the age after which the active request is recomputed.
	DefaultThreshold = 10 * time.Second
)

// Callback receives the states of the active request. It must not call
// back into the session synchronously.
type Callback func(fingerprint string, state loadable.Loadable[*domain.Trade])

// Session is safe for concurrent use.
type Session struct {
	svc       service.Service
	onUpdate  Callback
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	logger    *zap.Logger

	// deliverMu is taken before mu; callbacks run under deliverMu so that a
	// switch of the active request waits for in-flight deliveries.
	deliverMu sync.Mutex

	mu          sync.Mutex
	query       domain.QuoteQuery
	hasQuery    bool
	nonce       uint64
	createdAt   time.Time
	active      string
	unsubscribe func()
	current     loadable.Loadable[*domain.Trade]
	retain      bool
	paused      bool
}

// Option configures a Session.
type Option func(*Session)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithThreshold overrides DefaultThreshold.
func WithThreshold(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Session delivering states to cb.
func New(svc service.Service, cb Callback, opts ...Option) *Session {
	if cb == nil {
		cb = func(string, loadable.Loadable[*domain.Trade]) {}
	}
	s := &Session{
		svc:       svc,
		onUpdate:  cb,
		interval:  DefaultInterval,
		threshold: DefaultThreshold,
		now:       time.Now,
		logger:    zap.NewNop(),
		current:   loadable.Empty[*domain.Trade](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update makes q the active request. The session nonce replaces q.Nonce.
// An update with the same intent as the stored request, or that does not
// change the fingerprint, is a no-op.
func (s *Session) Update(q domain.QuoteQuery) {
	s.mu.Lock()
	if s.hasQuery && (s.paused || s.active != "") && s.query.SameIntent(q) {
		s.mu.Unlock()
		return
	}
	q.Nonce = s.nonce
	q.CreatedAt = s.now()
	fp := fingerprint.Quote(q)

	s.query, s.hasQuery = q, true
	if s.paused || fp == s.active {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.activate(q, fp, false)
}

// Refresh bumps the nonce and recomputes the active request now. The
// previous trade is kept as stale data until the new computation delivers a
// preview or settles.
func (s *Session) Refresh() {
	s.mu.Lock()
	if !s.hasQuery || s.paused {
		s.mu.Unlock()
		return
	}
	s.nonce++
	q := s.query
	q.Nonce = s.nonce
	q.CreatedAt = s.now()
	s.query = q
	s.mu.Unlock()

	metrics.Revalidations.Inc()
	s.logger.Debug("revalidating quote", zap.Uint64("nonce", q.Nonce))

	s.activate(q, fingerprint.Quote(q), true)
}

// Pause stops quoting: the running computation is dropped and the
// revalidation loop stays idle until Resume.
func (s *Session) Pause() {
	s.deliverMu.Lock()
	s.mu.Lock()
	s.paused = true
	s.active = ""
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	s.deliverMu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Resume restarts quoting of the last request.
func (s *Session) Resume() {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	q, ok := s.query, s.hasQuery
	s.mu.Unlock()

	if ok {
		s.activate(q, fingerprint.Quote(q), true)
	}
}

// Current returns the active fingerprint and its latest state.
func (s *Session) Current() (string, loadable.Loadable[*domain.Trade]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.current
}

// Close drops the active request. No callback is delivered afterwards.
func (s *Session) Close() {
	s.Pause()
}

// Run revalidates the active request until ctx is done, then closes the
// session.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	due := s.hasQuery &&
		!s.paused &&
		s.active != "" &&
		!s.current.Loading() &&
		s.now().Sub(s.createdAt) >= s.threshold
	s.mu.Unlock()

	if due {
		s.Refresh()
	}
}

func (s *Session) activate(q domain.QuoteQuery, fp string, retain bool) {
	s.deliverMu.Lock()
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.active = fp
	s.createdAt = q.CreatedAt
	s.retain = retain
	if !retain {
		s.current = loadable.Pending[*domain.Trade]()
	}
	s.mu.Unlock()
	s.deliverMu.Unlock()

	// from here on the previous fingerprint is never delivered
	if unsubscribe != nil {
		unsubscribe()
	}

	_, unsubscribe = s.svc.Subscribe(q, func(l loadable.Loadable[*domain.Trade]) {
		s.deliver(fp, l)
	})

	s.mu.Lock()
	if s.active == fp && s.unsubscribe == nil {
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	unsubscribe()
}

func (s *Session) deliver(fp string, l loadable.Loadable[*domain.Trade]) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if fp != s.active {
		s.mu.Unlock()
		return
	}
	// the stale trade stands in until the new computation has data of its own
	if s.retain {
		if l.Loading() && !l.HasData() {
			l = loadable.PendingWith(s.current)
		} else {
			s.retain = false
		}
	}
	s.current = l
	cb := s.onUpdate
	s.mu.Unlock()

	cb(fp, l)
}
