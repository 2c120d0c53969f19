package validate

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleshka4/smart-router/internal/apperrors"
	"github.com/fleshka4/smart-router/internal/domain"
)

var (
	native = domain.Currency{ChainID: 56, Decimals: 18, Symbol: "BNB"}
	wbnb   = domain.Currency{ChainID: 56, Address: domain.WrappedNative[56], Decimals: 18, Symbol: "WBNB"}
	usdt   = domain.Currency{ChainID: 56, Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18, Symbol: "USDT"}
)

func createValidQuery() domain.QuoteQuery {
	return domain.QuoteQuery{
		Amount:    domain.CurrencyAmount{Currency: wbnb, Value: big.NewInt(100)},
		Currency:  usdt,
		TradeType: domain.ExactInput,
		ChainID:   56,
		Protocols: domain.AllProtocols,
		MaxHops:   3,
		MaxSplits: 2,
	}
}

func TestQuoteQueryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(q *domain.QuoteQuery)
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "valid query",
			modify:  func(*domain.QuoteQuery) {},
			wantErr: assert.NoError,
		},
		{
			name:    "valid exact output",
			modify:  func(q *domain.QuoteQuery) { q.TradeType = domain.ExactOutput },
			wantErr: assert.NoError,
		},
		{
			name:    "nil amount",
			modify:  func(q *domain.QuoteQuery) { q.Amount.Value = nil },
			wantErr: assert.Error,
		},
		{
			name:    "zero amount",
			modify:  func(q *domain.QuoteQuery) { q.Amount.Value = big.NewInt(0) },
			wantErr: assert.Error,
		},
		{
			name:    "negative amount",
			modify:  func(q *domain.QuoteQuery) { q.Amount.Value = big.NewInt(-1) },
			wantErr: assert.Error,
		},
		{
			name:    "same currency",
			modify:  func(q *domain.QuoteQuery) { q.Currency = wbnb },
			wantErr: assert.Error,
		},
		{
			name:    "wrap",
			modify:  func(q *domain.QuoteQuery) { q.Amount.Currency, q.Currency = native, wbnb },
			wantErr: assert.Error,
		},
		{
			name:    "unwrap",
			modify:  func(q *domain.QuoteQuery) { q.Currency = native },
			wantErr: assert.Error,
		},
		{
			name:    "native to token",
			modify:  func(q *domain.QuoteQuery) { q.Amount.Currency = native },
			wantErr: assert.NoError,
		},
		{
			name:    "other chain",
			modify:  func(q *domain.QuoteQuery) { q.ChainID = 1 },
			wantErr: assert.Error,
		},
		{
			name:    "zero hops",
			modify:  func(q *domain.QuoteQuery) { q.MaxHops = 0 },
			wantErr: assert.Error,
		},
		{
			name:    "negative splits",
			modify:  func(q *domain.QuoteQuery) { q.MaxSplits = -1 },
			wantErr: assert.Error,
		},
		{
			name:    "no protocols",
			modify:  func(q *domain.QuoteQuery) { q.Protocols = 0 },
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := createValidQuery()
			tt.modify(&q)

			err := QuoteQueryValidate(q)
			tt.wantErr(t, err)
			if err != nil {
				require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
			}
		})
	}
}
