package strategy

import (
	"cmp"
	"slices"
	"sync"

	"github.com/fleshka4/smart-router/internal/fingerprint"
)

// Route names of the default table.
const (
	NameLight    = "light"
	NameOffchain = "offchain"
	NameAPI      = "api"
	NameOnchain  = "onchain"
)

// Table is an ordered list of routes.
type Table struct {
	routes []Route

	once  sync.Once
	tiers [][]Route
}

// NewTable creates a table. Routes without an executor are ignored.
func NewTable(routes ...Route) *Table {
	t := &Table{}
	for _, r := range routes {
		if r.Executor != nil {
			t.routes = append(t.routes, r)
		}
	}
	return t
}

// Resolve groups the routes into tiers of ascending priority, keeping table
// order inside a tier. The grouping is computed once. A nil table has no
// tiers.
func (t *Table) Resolve() [][]Route {
	if t == nil {
		return nil
	}
	t.once.Do(func() {
		sorted := slices.Clone(t.routes)
		slices.SortStableFunc(sorted, func(a, b Route) int {
			return cmp.Compare(a.Priority, b.Priority)
		})
		for i, r := range sorted {
			if i == 0 || r.Priority != sorted[i-1].Priority {
				t.tiers = append(t.tiers, nil)
			}
			last := len(t.tiers) - 1
			t.tiers[last] = append(t.tiers[last], r)
		}
	})
	return t.tiers
}

// DefaultTable builds the standard table: the light shadow route next to the
// offchain and api routes in the first tier, the onchain route as fallback.
// Nil executors are left out.
func DefaultTable(light, offchain, api, onchain Executor) *Table {
	one, zero := 1, 0
	return NewTable(
		Route{
			Name:      NameLight,
			Executor:  light,
			Overrides: fingerprint.Overrides{MaxHops: &one, MaxSplits: &zero},
			Shadow:    true,
			Priority:  0,
		},
		Route{Name: NameOffchain, Executor: offchain, Priority: 0},
		Route{Name: NameAPI, Executor: api, Priority: 0},
		Route{Name: NameOnchain, Executor: onchain, Priority: 1},
	)
}

// Tables holds a routing table per chain.
type Tables struct {
	mu       sync.RWMutex
	byChain  map[uint64]*Table
	fallback *Table
}

// NewTables creates a registry answering fallback for unknown chains.
func NewTables(fallback *Table) *Tables {
	return &Tables{byChain: make(map[uint64]*Table), fallback: fallback}
}

// Set registers the table of a chain.
func (t *Tables) Set(chainID uint64, table *Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byChain[chainID] = table
}

// For returns the table of a chain.
func (t *Tables) For(chainID uint64) *Table {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if table, ok := t.byChain[chainID]; ok {
		return table
	}
	return t.fallback
}
