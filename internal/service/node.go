package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/loadable"
)

type listener func(loadable.Loadable[*domain.Trade])

// node is the memoized computation of one quote fingerprint. Its context is
// the cancellation token of every network call made for the quote.
type node struct {
	fp    string
	query domain.QuoteQuery

	ctx     context.Context
	cancel  context.CancelFunc
	aborted atomic.Bool
	done    chan struct{}

	// deliverMu keeps deliveries in state order; it is taken before mu.
	deliverMu sync.Mutex

	mu     sync.Mutex
	state  loadable.Loadable[*domain.Trade]
	subs   map[int]listener
	nextID int
	refs   int
}

func newNode(fp string, q domain.QuoteQuery) *node {
	ctx, cancel := context.WithCancel(context.Background())
	return &node{
		fp:     fp,
		query:  q,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  loadable.Pending[*domain.Trade](),
		subs:   make(map[int]listener),
	}
}

func (n *node) current() loadable.Loadable[*domain.Trade] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// set publishes a new state. Only the computation goroutine calls it, and a
// settled state is the last one.
func (n *node) set(l loadable.Loadable[*domain.Trade]) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	n.state = l
	subs := make([]listener, 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	if l.Settled() {
		close(n.done)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(l)
	}
}

func (n *node) acquire() {
	n.mu.Lock()
	n.refs++
	n.mu.Unlock()
}

// release drops a reference and reports whether the node became idle, and
// whether it did so while still computing.
func (n *node) release() (idle, running bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refs--
	idle = n.refs == 0
	return idle, idle && !n.state.Settled()
}

func (n *node) idle() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.refs == 0
}

// listen registers fn and hands it the current state.
func (n *node) listen(fn listener) int {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	state := n.state
	n.mu.Unlock()

	fn(state)
	return id
}

func (n *node) unlisten(id int) {
	n.mu.Lock()
	delete(n.subs, id)
	n.mu.Unlock()
}

func (n *node) abort() {
	n.aborted.Store(true)
	n.cancel()
}
