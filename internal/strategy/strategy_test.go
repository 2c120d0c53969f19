package strategy_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/fingerprint"
	"github.com/fleshka4/smart-router/internal/infra/onchain"
	"github.com/fleshka4/smart-router/internal/infra/pricing"
	"github.com/fleshka4/smart-router/internal/pools"
	"github.com/fleshka4/smart-router/internal/strategy"
	"github.com/fleshka4/smart-router/internal/strategy/mock"
)

var (
	tokenA = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0a"), Decimals: 18, Symbol: "A"}
	tokenB = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0b"), Decimals: 18, Symbol: "B"}
	tokenC = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x0c"), Decimals: 18, Symbol: "C"}
)

func query(amount int64) domain.QuoteQuery {
	return domain.QuoteQuery{
		Amount:    domain.CurrencyAmount{Currency: tokenA, Value: big.NewInt(amount)},
		Currency:  tokenB,
		TradeType: domain.ExactInput,
		ChainID:   56,
		Protocols: domain.AllProtocols,
		MaxHops:   3,
		MaxSplits: 2,
	}
}

func trade(out int64, gas uint64, addrs ...string) domain.Trade {
	refs := make([]domain.PoolRef, len(addrs))
	for i, a := range addrs {
		refs[i] = domain.PoolRef{Protocol: domain.ProtocolV2, Address: common.HexToAddress(a)}
	}
	return domain.Trade{
		TradeType:    domain.ExactInput,
		InputAmount:  domain.CurrencyAmount{Currency: tokenA, Value: big.NewInt(100)},
		OutputAmount: domain.CurrencyAmount{Currency: tokenB, Value: big.NewInt(out)},
		Routes:       []domain.RouteAllocation{{Pools: refs, Percent: 100}},
		GasEstimate:  gas,
	}
}

func v2Pool(addr string, t0, t1 domain.Currency) domain.Pool {
	return domain.Pool{
		Protocol: domain.ProtocolV2,
		Address:  common.HexToAddress(addr),
		Token0:   t0,
		Token1:   t1,
		Reserve0: big.NewInt(1_000_000),
		Reserve1: big.NewInt(1_000_000),
		Fee:      2500,
	}
}

func TestIsBetter(t *testing.T) {
	t.Parallel()

	withGasCost := func(tr domain.Trade, cost int64) domain.Trade {
		tr.GasCostInQuote = big.NewInt(cost)
		return tr
	}
	exactOut := func(in int64) domain.Trade {
		tr := trade(100, 100, "0x01")
		tr.TradeType = domain.ExactOutput
		tr.InputAmount.Value = big.NewInt(in)
		return tr
	}

	tests := []struct {
		name string
		a, b domain.Trade
		want bool
	}{
		{name: "more output", a: trade(101, 100, "0x01"), b: trade(99, 100, "0x01"), want: true},
		{name: "less output", a: trade(99, 100, "0x01"), b: trade(101, 100, "0x01"), want: false},
		{name: "gas cost counts", a: withGasCost(trade(101, 100, "0x01"), 5), b: withGasCost(trade(100, 100, "0x02"), 1), want: false},
		{name: "lower gas wins a tie", a: trade(100, 90, "0x02"), b: trade(100, 100, "0x01"), want: true},
		{name: "fewer hops win a tie", a: trade(100, 100, "0x02"), b: trade(100, 100, "0x01", "0x03"), want: true},
		{name: "smaller route key wins a tie", a: trade(100, 100, "0x01"), b: trade(100, 100, "0x02"), want: true},
		{name: "irreflexive", a: trade(100, 100, "0x01"), b: trade(100, 100, "0x01"), want: false},
		{name: "exact output spends less", a: exactOut(90), b: exactOut(95), want: true},
		{name: "exact output spends more", a: exactOut(95), b: exactOut(90), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, strategy.IsBetter(tt.a, tt.b))
		})
	}
}

func TestBest(t *testing.T) {
	t.Parallel()

	_, ok := strategy.Best(nil)
	require.False(t, ok)

	a, b, c := trade(99, 100, "0x01"), trade(101, 100, "0x02"), trade(101, 100, "0x03")
	for _, order := range [][]domain.Trade{{a, b, c}, {c, b, a}, {b, a, c}} {
		best, ok := strategy.Best(order)
		require.True(t, ok)
		require.Equal(t, b.RouteKey(), best.RouteKey())
	}
}

func TestTable_Resolve(t *testing.T) {
	t.Parallel()

	exec := strategy.ExecutorFunc(func(context.Context, strategy.Request) (domain.Trade, error) {
		return domain.Trade{}, nil
	})

	table := strategy.NewTable(
		strategy.Route{Name: "c", Executor: exec, Priority: 1},
		strategy.Route{Name: "a", Executor: exec, Priority: 0},
		strategy.Route{Name: "none", Priority: 0},
		strategy.Route{Name: "b", Executor: exec, Priority: 0},
	)

	tiers := table.Resolve()
	require.Len(t, tiers, 2)
	require.Equal(t, "a", tiers[0][0].Name)
	require.Equal(t, "b", tiers[0][1].Name)
	require.Equal(t, "c", tiers[1][0].Name)

	again := table.Resolve()
	require.Len(t, again, 2)
	require.Equal(t, "a", again[0][0].Name)
}

func TestDefaultTable(t *testing.T) {
	t.Parallel()

	exec := strategy.ExecutorFunc(func(context.Context, strategy.Request) (domain.Trade, error) {
		return domain.Trade{}, nil
	})

	tiers := strategy.DefaultTable(exec, exec, nil, exec).Resolve()
	require.Len(t, tiers, 2)
	require.Len(t, tiers[0], 2)

	light := tiers[0][0]
	require.Equal(t, strategy.NameLight, light.Name)
	require.True(t, light.Shadow)

	q := light.Query(query(100))
	require.Equal(t, 1, q.MaxHops)
	require.Equal(t, 0, q.MaxSplits)

	require.Equal(t, strategy.NameOffchain, tiers[0][1].Name)
	require.Equal(t, strategy.NameOnchain, tiers[1][0].Name)
}

func TestTables(t *testing.T) {
	t.Parallel()

	fallback, bsc := strategy.NewTable(), strategy.NewTable()
	tables := strategy.NewTables(fallback)
	tables.Set(56, bsc)

	require.Same(t, bsc, tables.For(56))
	require.Same(t, fallback, tables.For(1))

	// no fallback
	require.Empty(t, strategy.NewTables(nil).For(1).Resolve())
}

func TestRoute_Run(t *testing.T) {
	t.Parallel()

	t.Run("stamps the trade", func(t *testing.T) {
		t.Parallel()

		route := strategy.Route{
			Name: "x",
			Executor: strategy.ExecutorFunc(func(_ context.Context, req strategy.Request) (domain.Trade, error) {
				assert.Equal(t, "fp", req.Fingerprint)
				return trade(100, 1, "0x01"), nil
			}),
		}

		got, err := route.Run(context.Background(), "fp", query(100))
		require.NoError(t, err)
		require.Equal(t, "fp", got.Fingerprint)
		require.Equal(t, "x", got.Source)
	})

	t.Run("overrides reach the executor", func(t *testing.T) {
		t.Parallel()

		one := 1
		route := strategy.Route{
			Name:      "x",
			Overrides: fingerprint.Overrides{MaxHops: &one},
			Executor: strategy.ExecutorFunc(func(_ context.Context, req strategy.Request) (domain.Trade, error) {
				assert.Equal(t, 1, req.Query.MaxHops)
				assert.Equal(t, 2, req.Query.MaxSplits)
				return trade(100, 1, "0x01"), nil
			}),
		}
		_, err := route.Run(context.Background(), "fp", query(100))
		require.NoError(t, err)
		require.NotEqual(t, route.Fingerprint("fp"), strategy.Route{Name: "x"}.Fingerprint("fp"))
	})

	tests := []struct {
		name  string
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "plain failure becomes no route",
			err:  errors.New("boom"),
			check: func(t *testing.T, err error) {
				require.True(t, apperrors.IsNoValidRoute(err))
			},
		},
		{
			name: "pool failure is kept",
			err:  errors.Wrap(&apperrors.FetchCandidatePoolsError{Protocol: "v3", Cause: errors.New("rpc")}, "x"),
			check: func(t *testing.T, err error) {
				require.True(t, apperrors.IsFetchCandidatePools(err))
			},
		},
		{
			name: "cancellation is kept",
			err:  errors.Wrap(context.Canceled, "x"),
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, context.Canceled)
				require.False(t, apperrors.IsNoValidRoute(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			route := strategy.Route{
				Name: "x",
				Executor: strategy.ExecutorFunc(func(context.Context, strategy.Request) (domain.Trade, error) {
					return domain.Trade{}, tt.err
				}),
			}
			_, err := route.Run(context.Background(), "fp", query(100))
			tt.check(t, err)
		})
	}

	t.Run("cancelled context wins", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		route := strategy.Route{
			Name: "x",
			Executor: strategy.ExecutorFunc(func(context.Context, strategy.Request) (domain.Trade, error) {
				cancel()
				return domain.Trade{}, errors.New("connection reset")
			}),
		}
		_, err := route.Run(ctx, "fp", query(100))
		require.True(t, apperrors.IsCancelled(err))
	})
}

func TestLight_Execute(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mock.NewMockPoolSource(ctrl)
	compute := mock.NewMockTradeComputer(ctrl)

	candidates := []domain.Pool{v2Pool("0x01", tokenA, tokenB)}
	q := query(100)

	src.EXPECT().CommonPools(gomock.Any(), q.PoolQuery(), pools.Lite).Return(candidates, nil)
	compute.EXPECT().
		BestTrade(gomock.Any(), gomock.Any(), candidates).
		DoAndReturn(func(_ context.Context, got domain.QuoteQuery, _ []domain.Pool) (domain.Trade, error) {
			require.Equal(t, 1, got.MaxHops)
			require.Equal(t, 0, got.MaxSplits)
			return trade(99, 1, "0x01"), nil
		})

	got, err := strategy.NewLight(src, compute).Execute(context.Background(), strategy.Request{Query: q, Fingerprint: "fp"})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(99), got.OutputAmount.Value)
	require.Equal(t, "fp", got.Fingerprint)
}

func TestLight_NoPools(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mock.NewMockPoolSource(ctrl)
	compute := mock.NewMockTradeComputer(ctrl)

	src.EXPECT().CommonPools(gomock.Any(), gomock.Any(), pools.Lite).Return(nil, nil)

	_, err := strategy.NewLight(src, compute).Execute(context.Background(), strategy.Request{Query: query(100)})
	require.True(t, apperrors.IsNoValidRoute(err))
}

func TestOffchain_Execute(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mock.NewMockPoolSource(ctrl)
	compute := mock.NewMockTradeComputer(ctrl)

	q := query(100)
	candidates := []domain.Pool{v2Pool("0x01", tokenA, tokenC), v2Pool("0x02", tokenC, tokenB)}

	t.Run("routes over candidate pools", func(t *testing.T) {
		src.EXPECT().CandidatePools(gomock.Any(), q.PoolQuery(), pools.Full).Return(candidates, nil)
		compute.EXPECT().BestTrade(gomock.Any(), q, candidates).Return(trade(101, 1, "0x01", "0x02"), nil)

		got, err := strategy.NewOffchain(src, compute).Execute(context.Background(), strategy.Request{Query: q, Fingerprint: "fp"})
		require.NoError(t, err)
		require.Equal(t, 2, got.Hops())
		require.Equal(t, "fp", got.Fingerprint)
	})

	t.Run("pool failure", func(t *testing.T) {
		src.EXPECT().CandidatePools(gomock.Any(), gomock.Any(), pools.Full).
			Return(nil, &apperrors.FetchCandidatePoolsError{Cause: errors.New("rpc")})

		_, err := strategy.NewOffchain(src, compute).Execute(context.Background(), strategy.Request{Query: q})
		require.True(t, apperrors.IsFetchCandidatePools(err))
	})
}

func TestAPI_Execute(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	quoter := mock.NewMockPriceQuoter(ctrl)
	q := query(100)

	t.Run("single hop", func(t *testing.T) {
		quoter.EXPECT().Quote(gomock.Any(), q).Return(pricing.Quote{
			AmountIn:  big.NewInt(100),
			AmountOut: big.NewInt(98),
			Route:     []pricing.Hop{{Protocol: "v3", Address: common.HexToAddress("0x09"), Fee: 500}},
		}, nil)

		got, err := strategy.NewAPI(quoter).Execute(context.Background(), strategy.Request{Query: q, Fingerprint: "fp"})
		require.NoError(t, err)
		require.Equal(t, big.NewInt(98), got.OutputAmount.Value)
		require.Equal(t, "fp", got.Fingerprint)
		require.Equal(t, []domain.Currency{tokenA, tokenB}, got.Routes[0].Path)
		require.Equal(t, domain.ProtocolV3, got.Routes[0].Pools[0].Protocol)
		require.NotZero(t, got.GasEstimate)
	})

	t.Run("api failure", func(t *testing.T) {
		quoter.EXPECT().Quote(gomock.Any(), q).Return(pricing.Quote{}, pricing.ErrRateLimited)

		_, err := strategy.NewAPI(quoter).Execute(context.Background(), strategy.Request{Query: q})
		require.ErrorIs(t, err, pricing.ErrRateLimited)
	})

	t.Run("empty amount", func(t *testing.T) {
		quoter.EXPECT().Quote(gomock.Any(), q).Return(pricing.Quote{AmountIn: big.NewInt(100), AmountOut: big.NewInt(0)}, nil)

		_, err := strategy.NewAPI(quoter).Execute(context.Background(), strategy.Request{Query: q})
		require.True(t, apperrors.IsNoValidRoute(err))
	})
}

func TestOnchain_Execute(t *testing.T) {
	t.Parallel()

	q := query(100)
	candidates := []domain.Pool{
		v2Pool("0x01", tokenA, tokenB),
		v2Pool("0x02", tokenA, tokenC),
		v2Pool("0x03", tokenC, tokenB),
		{Protocol: domain.ProtocolV3, Address: common.HexToAddress("0x04"), Token0: tokenC, Token1: tokenB, Fee: 500},
	}

	t.Run("picks the best homogeneous path", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		src := mock.NewMockPoolSource(ctrl)
		quoter := mock.NewMockPathQuoter(ctrl)

		src.EXPECT().CandidatePools(gomock.Any(), q.PoolQuery(), pools.Full).Return(candidates, nil)
		// A>B direct and A>C>B over v2; the mixed v2/v3 path is never quoted
		quoter.EXPECT().
			QuotePath(gomock.Any(), domain.ExactInput, gomock.Any(), gomock.Any(), q.Amount.Value, uint64(0)).
			DoAndReturn(func(_ context.Context, _ domain.TradeType, path []domain.Currency, refs []domain.PoolRef, amount *big.Int, _ uint64) (onchain.PathQuote, error) {
				for _, r := range refs {
					assert.Equal(t, domain.ProtocolV2, r.Protocol)
				}
				out := int64(97)
				if len(path) == 3 {
					out = 98
				}
				return onchain.PathQuote{AmountIn: amount, AmountOut: big.NewInt(out)}, nil
			}).
			Times(2)

		got, err := strategy.NewOnchain(src, quoter, strategy.WithQuoteConcurrency(1)).
			Execute(context.Background(), strategy.Request{Query: q, Fingerprint: "fp"})
		require.NoError(t, err)
		require.Equal(t, big.NewInt(98), got.OutputAmount.Value)
		require.Equal(t, "fp", got.Fingerprint)
		require.Equal(t, 2, got.Hops())
		require.NotZero(t, got.GasEstimate)
	})

	t.Run("every quote failed", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		src := mock.NewMockPoolSource(ctrl)
		quoter := mock.NewMockPathQuoter(ctrl)

		src.EXPECT().CandidatePools(gomock.Any(), gomock.Any(), pools.Full).Return(candidates[:1], nil)
		quoter.EXPECT().QuotePath(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(onchain.PathQuote{}, errors.New("execution reverted"))

		_, err := strategy.NewOnchain(src, quoter).Execute(context.Background(), strategy.Request{Query: q})
		require.True(t, apperrors.IsNoValidRoute(err))
	})

	t.Run("no quotable path", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		src := mock.NewMockPoolSource(ctrl)
		quoter := mock.NewMockPathQuoter(ctrl)

		src.EXPECT().CandidatePools(gomock.Any(), gomock.Any(), pools.Full).Return(candidates[3:], nil)

		_, err := strategy.NewOnchain(src, quoter).Execute(context.Background(), strategy.Request{Query: q})
		require.True(t, apperrors.IsNoValidRoute(err))
	})
}
