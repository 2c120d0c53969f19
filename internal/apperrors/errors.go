package apperrors

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrInvalidArgument is returned when the request parameters are invalid.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCancelled is returned when a computation was aborted because its
	// request stopped being the active one.
	ErrCancelled = errors.New("quote cancelled")
)

// FetchCandidatePoolsError is returned when the pools of a protocol could not
// be retrieved from the upstream provider.
type FetchCandidatePoolsError struct {
	Protocol string
	Cause    error
}

func (e *FetchCandidatePoolsError) Error() string {
	if e.Protocol == "" {
		return fmt.Sprintf("fetch candidate pools: %v", e.Cause)
	}
	return fmt.Sprintf("fetch candidate pools (%s): %v", e.Protocol, e.Cause)
}

func (e *FetchCandidatePoolsError) Unwrap() error { return e.Cause }

// NoValidRouteError is returned when no strategy produced a usable trade.
type NoValidRouteError struct {
	Reason string
	Causes error
}

func (e *NoValidRouteError) Error() string {
	msg := "no valid route"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Causes != nil {
		msg += " (" + e.Causes.Error() + ")"
	}
	return msg
}

func (e *NoValidRouteError) Unwrap() []error { return multierr.Errors(e.Causes) }

// NewNoValidRoute builds a NoValidRouteError from the given causes.
func NewNoValidRoute(reason string, causes ...error) *NoValidRouteError {
	return &NoValidRouteError{Reason: reason, Causes: multierr.Combine(causes...)}
}

// IsNoValidRoute reports whether err is (or wraps) a NoValidRouteError.
func IsNoValidRoute(err error) bool {
	var target *NoValidRouteError
	return errors.As(err, &target)
}

// IsFetchCandidatePools reports whether err is (or wraps) a FetchCandidatePoolsError.
func IsFetchCandidatePools(err error) bool {
	var target *FetchCandidatePoolsError
	return errors.As(err, &target)
}

// IsCancelled reports whether err comes from an aborted request rather than
// from a failure of the computation itself.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
