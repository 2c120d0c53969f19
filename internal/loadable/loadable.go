// Package loadable holds the async result container shared by the quoting
// pipeline: a value that may be loading, may carry data and may carry an
// error. Values are immutable.
package loadable

import (
	"go.uber.org/multierr"
)

// Loadable is the state of an asynchronous computation.
//
// While loading, data (if any) is the last known value of the previous
// computation. A settled Loadable carries either data or an error, or
// neither when the computation was skipped.
type Loadable[T any] struct {
	loading bool
	hasData bool
	stale   bool
	data    T
	err     error
}

// Of returns a settled Loadable carrying v.
func Of[T any](v T) Loadable[T] {
	return Loadable[T]{hasData: true, data: v}
}

// Pending returns a loading Loadable without data.
func Pending[T any]() Loadable[T] {
	return Loadable[T]{loading: true}
}

// PendingWith returns a loading Loadable retaining the data of prev.
func PendingWith[T any](prev Loadable[T]) Loadable[T] {
	if !prev.hasData {
		return Pending[T]()
	}
	return Loadable[T]{loading: true, hasData: true, stale: true, data: prev.data}
}

// Errored returns a settled Loadable carrying err.
func Errored[T any](err error) Loadable[T] {
	return Loadable[T]{err: err}
}

// Empty returns a settled Loadable with neither data nor error.
func Empty[T any]() Loadable[T] {
	return Loadable[T]{}
}

// Loading reports whether the computation is in flight.
func (l Loadable[T]) Loading() bool { return l.loading }

// HasData reports whether a value is available, fresh or stale.
func (l Loadable[T]) HasData() bool { return l.hasData }

// Err returns the error of a settled computation.
func (l Loadable[T]) Err() error { return l.err }

// Fresh reports whether the data comes from a newly completed computation.
func (l Loadable[T]) Fresh() bool { return l.hasData && !l.stale && !l.loading }

// Stale reports whether the data is a replay of an earlier computation.
func (l Loadable[T]) Stale() bool { return l.hasData && l.stale }

// Unwrap returns the data and whether there is any.
func (l Loadable[T]) Unwrap() (T, bool) {
	return l.data, l.hasData
}

// Value returns the data or the zero value of T.
func (l Loadable[T]) Value() T {
	return l.data
}

// Settled reports whether the computation finished.
func (l Loadable[T]) Settled() bool { return !l.loading }

// WithPending returns a loading copy of l carrying v as a preview.
func WithPending[T any](v T) Loadable[T] {
	return Loadable[T]{loading: true, hasData: true, data: v}
}

// All combines ls: every one succeeded → their data; any errored → the
// combined error; otherwise pending with the data known so far.
func All[T any](ls ...Loadable[T]) Loadable[[]T] {
	var (
		err     error
		pending bool
		data    = make([]T, 0, len(ls))
	)
	for _, l := range ls {
		switch {
		case l.err != nil:
			err = multierr.Append(err, l.err)
		case l.loading:
			pending = true
			if l.hasData {
				data = append(data, l.data)
			}
		case l.hasData:
			data = append(data, l.data)
		}
	}
	switch {
	case err != nil:
		return Errored[[]T](err)
	case pending:
		if len(data) == 0 {
			return Pending[[]T]()
		}
		return WithPending(data)
	default:
		return Of(data)
	}
}

// Merge picks the best data among ls by better. While any is loading the
// result is pending with the best known data. Once all settled it is the
// best data, or the combined errors when none produced data.
func Merge[T any](ls []Loadable[T], better func(a, b T) bool) Loadable[T] {
	var (
		best    T
		found   bool
		pending bool
		err     error
	)
	for _, l := range ls {
		if l.loading {
			pending = true
		}
		if l.err != nil {
			err = multierr.Append(err, l.err)
		}
		if !l.hasData {
			continue
		}
		if !found || better(l.data, best) {
			best, found = l.data, true
		}
	}
	switch {
	case pending && found:
		return WithPending(best)
	case pending:
		return Pending[T]()
	case found:
		return Of(best)
	case err != nil:
		return Errored[T](err)
	default:
		return Empty[T]()
	}
}
