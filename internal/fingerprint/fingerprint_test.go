package fingerprint

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/smart-router/internal/domain"
)

var (
	tokenA = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"), Decimals: 18}
	tokenB = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18}
)

func baseQuery() domain.QuoteQuery {
	return domain.QuoteQuery{
		Amount:      domain.CurrencyAmount{Currency: tokenA, Value: big.NewInt(100)},
		Currency:    tokenB,
		TradeType:   domain.ExactInput,
		ChainID:     56,
		Protocols:   domain.AllProtocols,
		MaxHops:     3,
		MaxSplits:   2,
		SlippageBps: 50,
	}
}

func TestPair(t *testing.T) {
	t.Parallel()

	require.Equal(t, Pair(tokenA, tokenB), Pair(tokenA, tokenB))
	require.Equal(t, Pair(tokenA, tokenB), Pair(tokenB, tokenA))
	require.NotEqual(t, Pair(tokenA, tokenB), Pair(tokenA, tokenA))
	require.Len(t, Pair(tokenA, tokenB), 64)
}

func TestPool(t *testing.T) {
	t.Parallel()

	q := domain.PoolQuery{CurrencyA: tokenA, CurrencyB: tokenB, ChainID: 56, Protocols: domain.AllProtocols}
	swapped := q
	swapped.CurrencyA, swapped.CurrencyB = q.CurrencyB, q.CurrencyA

	require.Equal(t, Pool(q), Pool(swapped))

	atBlock := q
	atBlock.BlockNumber = 100
	require.NotEqual(t, Pool(q), Pool(atBlock))

	v2Only := q
	v2Only.Protocols = domain.NewProtocolSet(domain.ProtocolV2)
	require.NotEqual(t, Pool(q), Pool(v2Only))
}

func TestQuote(t *testing.T) {
	t.Parallel()

	base := Quote(baseQuery())

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, base, Quote(baseQuery()))
	})

	t.Run("transient fields are excluded", func(t *testing.T) {
		t.Parallel()

		q := baseQuery()
		q.CreatedAt = time.Now()
		q.Amount.Value = big.NewInt(100)
		q.Amount.Currency.Symbol = "CAKE"
		require.Equal(t, base, Quote(q))
	})

	tests := []struct {
		name   string
		mutate func(q *domain.QuoteQuery)
	}{
		{name: "amount", mutate: func(q *domain.QuoteQuery) { q.Amount.Value = big.NewInt(101) }},
		{name: "trade type", mutate: func(q *domain.QuoteQuery) { q.TradeType = domain.ExactOutput }},
		{name: "amount side", mutate: func(q *domain.QuoteQuery) { q.Amount.Currency, q.Currency = q.Currency, q.Amount.Currency }},
		{name: "protocols", mutate: func(q *domain.QuoteQuery) { q.Protocols = domain.NewProtocolSet(domain.ProtocolV3) }},
		{name: "max hops", mutate: func(q *domain.QuoteQuery) { q.MaxHops = 1 }},
		{name: "max splits", mutate: func(q *domain.QuoteQuery) { q.MaxSplits = 0 }},
		{name: "slippage", mutate: func(q *domain.QuoteQuery) { q.SlippageBps = 100 }},
		{name: "block", mutate: func(q *domain.QuoteQuery) { q.BlockNumber = 1 }},
		{name: "nonce", mutate: func(q *domain.QuoteQuery) { q.Nonce = 1 }},
		{name: "chain", mutate: func(q *domain.QuoteQuery) { q.ChainID = 1 }},
		{name: "output decimals", mutate: func(q *domain.QuoteQuery) { q.Currency.Decimals = 6 }},
		{name: "input decimals", mutate: func(q *domain.QuoteQuery) { q.Amount.Currency.Decimals = 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := baseQuery()
			tt.mutate(&q)
			assert.NotEqual(t, base, Quote(q))
		})
	}
}

func TestStrategy(t *testing.T) {
	t.Parallel()

	one := 1
	q := Quote(baseQuery())

	require.Equal(t, Strategy(q, "offchain", Overrides{}), Strategy(q, "offchain", Overrides{}))
	require.NotEqual(t, Strategy(q, "offchain", Overrides{}), Strategy(q, "api", Overrides{}))
	require.NotEqual(t, Strategy(q, "light", Overrides{}), Strategy(q, "light", Overrides{MaxHops: &one}))
	require.NotEqual(t, Strategy(q, "light", Overrides{MaxHops: &one}), Strategy(q, "light", Overrides{MaxSplits: &one}))
}
