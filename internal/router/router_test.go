package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

var (
	tokenA = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0a"), Decimals: 18, Symbol: "A"}
	tokenB = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0b"), Decimals: 18, Symbol: "B"}
	tokenC = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0c"), Decimals: 18, Symbol: "C"}
)

func pool(addr string, p domain.Protocol, t0, t1 domain.Currency, r0, r1 int64) domain.Pool {
	return domain.Pool{
		Protocol: p,
		Address:  common.HexToAddress(addr),
		Token0:   t0,
		Token1:   t1,
		Reserve0: big.NewInt(r0),
		Reserve1: big.NewInt(r1),
		Fee:      3000,
	}
}

func query(tt domain.TradeType, amount int64, maxHops, maxSplits int) domain.QuoteQuery {
	q := domain.QuoteQuery{
		Currency:  tokenB,
		TradeType: tt,
		ChainID:   56,
		Protocols: domain.AllProtocols,
		MaxHops:   maxHops,
		MaxSplits: maxSplits,
	}
	if tt == domain.ExactInput {
		q.Amount = domain.CurrencyAmount{Currency: tokenA, Value: big.NewInt(amount)}
	} else {
		q.Amount = domain.CurrencyAmount{Currency: tokenB, Value: big.NewInt(amount)}
		q.Currency = tokenA
	}
	return q
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	pools := []domain.Pool{
		pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1000, 1000),
		pool("0x02", domain.ProtocolV3, tokenA, tokenC, 1000, 1000),
		pool("0x03", domain.ProtocolV2, tokenC, tokenB, 1000, 1000),
	}

	t.Run("single hop", func(t *testing.T) {
		t.Parallel()

		routes := Routes(pools, tokenA, tokenB, 1, 0)
		require.Len(t, routes, 1)
		require.Equal(t, common.HexToAddress("0x01"), routes[0].Pools[0].Address)
	})

	t.Run("multi hop", func(t *testing.T) {
		t.Parallel()

		routes := Routes(pools, tokenA, tokenB, 3, 0)
		require.Len(t, routes, 2)
		require.Len(t, routes[1].Pools, 2)
		require.Equal(t, []domain.Currency{tokenA, tokenC, tokenB}, routes[1].Path)
	})

	t.Run("capped", func(t *testing.T) {
		t.Parallel()

		require.Len(t, Routes(pools, tokenA, tokenB, 3, 1), 1)
	})

	t.Run("same currency", func(t *testing.T) {
		t.Parallel()

		require.Empty(t, Routes(pools, tokenA, tokenA, 3, 0))
	})
}

func TestBestTrade(t *testing.T) {
	t.Parallel()

	t.Run("exact input single pool", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1000, 1000)}
		trade, err := New().BestTrade(pools, query(domain.ExactInput, 100, 1, 0))
		require.NoError(t, err)
		require.Equal(t, big.NewInt(100), trade.InputAmount.Value)
		require.Equal(t, big.NewInt(90), trade.OutputAmount.Value)
		require.Len(t, trade.Routes, 1)
		require.Equal(t, 100, trade.Routes[0].Percent)
		require.Equal(t, BaseGas+hopGas[domain.ProtocolV2], trade.GasEstimate)
	})

	t.Run("picks the better path", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{
			pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1000, 500),
			pool("0x02", domain.ProtocolV2, tokenA, tokenC, 100000, 100000),
			pool("0x03", domain.ProtocolV3, tokenC, tokenB, 100000, 100000),
		}
		trade, err := New().BestTrade(pools, query(domain.ExactInput, 100, 2, 0))
		require.NoError(t, err)
		require.Equal(t, 2, trade.Hops())
		require.Equal(t, []domain.Currency{tokenA, tokenC, tokenB}, trade.Routes[0].Path)
	})

	t.Run("exact output", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1000, 1000)}
		trade, err := New().BestTrade(pools, query(domain.ExactOutput, 90, 1, 0))
		require.NoError(t, err)
		require.Equal(t, big.NewInt(90), trade.OutputAmount.Value)
		require.True(t, trade.InputAmount.Currency.Equal(tokenA))

		out, ok := ConstantProduct{}.AmountOut(pools[0], tokenA, trade.InputAmount.Value)
		require.True(t, ok)
		require.GreaterOrEqual(t, out.Cmp(big.NewInt(90)), 0)
	})

	t.Run("split across disjoint pools", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{
			pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1_000_000, 1_000_000),
			pool("0x02", domain.ProtocolV3, tokenA, tokenB, 1_000_000, 1_000_000),
		}
		single, err := New().BestTrade(pools, query(domain.ExactInput, 500_000, 1, 0))
		require.NoError(t, err)

		split, err := New().BestTrade(pools, query(domain.ExactInput, 500_000, 1, 1))
		require.NoError(t, err)
		require.Len(t, split.Routes, 2)
		require.Equal(t, 1, split.OutputAmount.Value.Cmp(single.OutputAmount.Value))
		require.Equal(t, big.NewInt(500_000), split.InputAmount.Value)

		total := 0
		for _, r := range split.Routes {
			total += r.Percent
		}
		require.Equal(t, 100, total)
	})

	t.Run("no route", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{pool("0x02", domain.ProtocolV3, tokenA, tokenC, 1000, 1000)}
		_, err := New().BestTrade(pools, query(domain.ExactInput, 100, 1, 0))
		require.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("insufficient liquidity for exact output", func(t *testing.T) {
		t.Parallel()

		pools := []domain.Pool{pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1000, 1000)}
		_, err := New().BestTrade(pools, query(domain.ExactOutput, 1000, 1, 0))
		require.ErrorIs(t, err, ErrNoRoute)
	})

	t.Run("zero amount", func(t *testing.T) {
		t.Parallel()

		_, err := New().BestTrade(nil, query(domain.ExactInput, 0, 1, 0))
		require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

type flatCalculator struct{}

func (flatCalculator) AmountOut(_ domain.Pool, _ domain.Currency, amountIn *big.Int) (*big.Int, bool) {
	return new(big.Int).Set(amountIn), true
}

func (flatCalculator) AmountIn(_ domain.Pool, _ domain.Currency, amountOut *big.Int) (*big.Int, bool) {
	return new(big.Int).Set(amountOut), true
}

func TestWithCalculator(t *testing.T) {
	t.Parallel()

	pools := []domain.Pool{pool("0x01", domain.ProtocolV2, tokenA, tokenB, 1, 1)}
	trade, err := New(WithCalculator(flatCalculator{})).BestTrade(pools, query(domain.ExactInput, 100, 1, 0))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), trade.OutputAmount.Value)
}

func TestEstimateGas(t *testing.T) {
	t.Parallel()

	require.Zero(t, EstimateGas(nil))
	require.Equal(t, BaseGas+ExtraRouteGas+60_000+100_000+80_000, EstimateGas([][]domain.PoolRef{
		{{Protocol: domain.ProtocolV2}, {Protocol: domain.ProtocolV3}},
		{{Protocol: domain.ProtocolInfinityBin}},
	}))
}
