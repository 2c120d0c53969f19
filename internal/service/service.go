package service

import (
	"context"

	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/loadable"
)

// Service represents interface for business logic.
type Service interface {
	// Quote returns the current state of the computation for q, starting it
	// on first access.
	Quote(q domain.QuoteQuery) loadable.Loadable[*domain.Trade]

	// Subscribe delivers every state of the computation for q to fn, the
	// current one included. The returned func drops the subscription.
	Subscribe(q domain.QuoteQuery, fn func(loadable.Loadable[*domain.Trade])) (string, func())

	// Wait blocks until the computation for q settles or ctx is done.
	Wait(ctx context.Context, q domain.QuoteQuery) loadable.Loadable[*domain.Trade]

	// Cancel aborts the computation of a fingerprint and forgets it.
	Cancel(fingerprint string)
}
