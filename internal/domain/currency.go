package domain

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WrappedNative maps a chain id to the ERC20 wrapper of its native currency.
var WrappedNative = map[uint64]common.Address{
	1:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), // WETH
	56: common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), // WBNB
	97: common.HexToAddress("0xae13d989daC2f0dEbFf460aC112a837C89BAa7cd"), // WBNB testnet
}

// BaseTokens are the intermediate currencies multi-hop routes may go through.
var BaseTokens = map[uint64][]Currency{
	1: {
		{ChainID: 1, Address: WrappedNative[1], Decimals: 18, Symbol: "WETH"},
		{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6, Symbol: "USDC"},
		{ChainID: 1, Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6, Symbol: "USDT"},
	},
	56: {
		{ChainID: 56, Address: WrappedNative[56], Decimals: 18, Symbol: "WBNB"},
		{ChainID: 56, Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18, Symbol: "USDT"},
		{ChainID: 56, Address: common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"), Decimals: 18, Symbol: "USDC"},
	},
}

// Currency is a token on a chain. The zero address stands for the native currency.
type Currency struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
}

// IsNative reports whether c is the chain's native currency.
func (c Currency) IsNative() bool {
	return c.Address == (common.Address{})
}

// Wrapped returns the ERC20 form of c, mapping native to its wrapper.
func (c Currency) Wrapped() Currency {
	if !c.IsNative() {
		return c
	}
	w, ok := WrappedNative[c.ChainID]
	if !ok {
		return c
	}
	return Currency{ChainID: c.ChainID, Address: w, Decimals: c.Decimals, Symbol: "W" + c.Symbol}
}

// Equal compares chain and address; decimals and symbol are metadata.
func (c Currency) Equal(o Currency) bool {
	return c.ChainID == o.ChainID && c.Address == o.Address
}

// Less is the canonical order used wherever a currency pair is unordered.
func (c Currency) Less(o Currency) bool {
	if c.ChainID != o.ChainID {
		return c.ChainID < o.ChainID
	}
	return bytes.Compare(c.Address.Bytes(), o.Address.Bytes()) < 0
}

func (c Currency) String() string {
	if c.Symbol != "" {
		return c.Symbol
	}
	if c.IsNative() {
		return fmt.Sprintf("native(%d)", c.ChainID)
	}
	return c.Address.Hex()
}

// SortedPair returns a and b in canonical order.
func SortedPair(a, b Currency) (Currency, Currency) {
	if b.Less(a) {
		return b, a
	}
	return a, b
}

// IsWrapOrUnwrap reports whether trading a for b is a pure wrap or unwrap
// of the native currency.
func IsWrapOrUnwrap(a, b Currency) bool {
	if a.ChainID != b.ChainID || a.IsNative() == b.IsNative() {
		return false
	}
	return a.Wrapped().Equal(b.Wrapped())
}

// CurrencyAmount is a raw integer amount of a currency.
type CurrencyAmount struct {
	Currency Currency `json:"currency"`
	Value    *big.Int `json:"value"`
}

// IsZero reports whether the amount is missing or not positive.
func (a CurrencyAmount) IsZero() bool {
	return a.Value == nil || a.Value.Sign() <= 0
}

func (a CurrencyAmount) String() string {
	if a.Value == nil {
		return "0 " + a.Currency.String()
	}
	return a.Value.String() + " " + a.Currency.String()
}
