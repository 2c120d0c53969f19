package router

import "github.com/fleshka4/smart-router/internal/domain"

// DefaultMaxRoutes caps how many paths Routes enumerates.
const DefaultMaxRoutes = 64

// Route is a path of pools from one currency to another.
type Route struct {
	Path  []domain.Currency
	Pools []domain.Pool
}

// Refs returns the pool references of r.
func (r Route) Refs() []domain.PoolRef {
	refs := make([]domain.PoolRef, len(r.Pools))
	for i, p := range r.Pools {
		refs[i] = p.Ref()
	}
	return refs
}

func (r Route) shares(o Route) bool {
	for _, p := range r.Pools {
		for _, q := range o.Pools {
			if p.Protocol == q.Protocol && p.Address == q.Address {
				return true
			}
		}
	}
	return false
}

// Routes enumerates simple paths from in to out of at most maxHops pools,
// depth first in pool order. No currency is visited twice.
func Routes(pools []domain.Pool, in, out domain.Currency, maxHops, maxRoutes int) []Route {
	if maxHops <= 0 {
		maxHops = 1
	}
	if maxRoutes <= 0 {
		maxRoutes = DefaultMaxRoutes
	}

	from, to := in.Wrapped(), out.Wrapped()
	if from.Equal(to) {
		return nil
	}

	var (
		routes []Route
		path   = []domain.Currency{from}
		used   []domain.Pool
	)

	visited := func(c domain.Currency) bool {
		for _, p := range path {
			if p.Equal(c) {
				return true
			}
		}
		return false
	}

	var walk func(cur domain.Currency)
	walk = func(cur domain.Currency) {
		if len(routes) >= maxRoutes || len(used) >= maxHops {
			return
		}
		for _, pool := range pools {
			if !pool.Involves(cur) {
				continue
			}
			next := pool.Other(cur)
			if visited(next) {
				continue
			}

			path = append(path, next)
			used = append(used, pool)

			if next.Equal(to) {
				r := Route{
					Path:  append([]domain.Currency(nil), path...),
					Pools: append([]domain.Pool(nil), used...),
				}
				// keep the caller's currencies at the ends, native included
				r.Path[0], r.Path[len(r.Path)-1] = in, out
				routes = append(routes, r)
			} else {
				walk(next)
			}

			path = path[:len(path)-1]
			used = used[:len(used)-1]

			if len(routes) >= maxRoutes {
				return
			}
		}
	}
	walk(from)

	return routes
}
