package pools

import (
	"context"

	"github.com/fleshka4/smart-router/internal/domain"
)

// Provider reads candidate pools for a currency pair from chain or an indexer.
type Provider interface {
	// GetPools returns the pools of protocol between q.CurrencyA and q.CurrencyB.
	// withState asks for tick/bin data on top of reserves.
	GetPools(ctx context.Context, protocol domain.Protocol, q domain.PoolQuery, withState bool) ([]domain.Pool, error)
}

// Variant selects how much pool state a fetch loads.
type Variant uint8

const (
	// Full pools carry ticks and bins.
	Full Variant = iota
	// Lite pools carry reserves only and failures degrade to an empty result.
	Lite
)

func (v Variant) String() string {
	if v == Lite {
		return "lite"
	}
	return "full"
}
