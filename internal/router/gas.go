package router

import "github.com/fleshka4/smart-router/internal/domain"

const (
	// BaseGas is the fixed cost of a swap transaction.
	BaseGas uint64 = 90_000
	// ExtraRouteGas is paid per additional split route.
	ExtraRouteGas uint64 = 30_000
)

var hopGas = map[domain.Protocol]uint64{
	domain.ProtocolV2:          60_000,
	domain.ProtocolV3:          100_000,
	domain.ProtocolStable:      120_000,
	domain.ProtocolInfinityCL:  100_000,
	domain.ProtocolInfinityBin: 80_000,
}

// EstimateGas approximates the gas of a trade going through routes.
func EstimateGas(routes [][]domain.PoolRef) uint64 {
	if len(routes) == 0 {
		return 0
	}
	gas := BaseGas + ExtraRouteGas*uint64(len(routes)-1)
	for _, r := range routes {
		for _, p := range r {
			gas += hopGas[p.Protocol]
		}
	}
	return gas
}
