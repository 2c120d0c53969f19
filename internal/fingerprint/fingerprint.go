// Package fingerprint derives stable cache keys from requests.
//
// A key is the BLAKE3 digest of a canonical JSON encoding of the fields that
// affect the result. Unordered currency pairs are sorted before encoding.
package fingerprint

import (
	"encoding/hex"
	"math/big"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/zeebo/blake3"

	"github.com/fleshka4/smart-router/internal/domain"
)

// std sorts map keys and escapes HTML like encoding/json, so encodings are stable.
var std = sonic.ConfigStd

type currencyKey struct {
	ChainID uint64         `json:"c"`
	Address common.Address `json:"a"`
}

func keyOf(c domain.Currency) currencyKey {
	return currencyKey{ChainID: c.ChainID, Address: c.Address}
}

type pairKey struct {
	Kind string      `json:"k"`
	A    currencyKey `json:"a"`
	B    currencyKey `json:"b"`
}

type poolKey struct {
	Kind        string             `json:"k"`
	Pair        pairKey            `json:"p"`
	ChainID     uint64             `json:"c"`
	Protocols   domain.ProtocolSet `json:"pr"`
	BlockNumber uint64             `json:"bn"`
}

type quoteKey struct {
	Kind        string             `json:"k"`
	Pair        pairKey            `json:"p"`
	AmountSide  currencyKey        `json:"as"`
	Amount      string             `json:"am"`
	DecimalsIn  uint8              `json:"di"`
	DecimalsOut uint8              `json:"do"`
	TradeType   domain.TradeType   `json:"tt"`
	ChainID     uint64             `json:"c"`
	Protocols   domain.ProtocolSet `json:"pr"`
	MaxHops     int                `json:"mh"`
	MaxSplits   int                `json:"ms"`
	SlippageBps uint32             `json:"sl"`
	BlockNumber uint64             `json:"bn"`
	Nonce       uint64             `json:"n"`
}

type strategyKey struct {
	Kind      string `json:"k"`
	Quote     string `json:"q"`
	Name      string `json:"s"`
	MaxHops   *int   `json:"mh,omitempty"`
	MaxSplits *int   `json:"ms,omitempty"`
}

// Overrides mirrors the per-route query overrides that take part in a strategy key.
type Overrides struct {
	MaxHops   *int
	MaxSplits *int
}

// Pair returns the key of an unordered currency pair.
func Pair(a, b domain.Currency) string {
	return digest(pair(a, b))
}

// Pool returns the key of a candidate pool query.
func Pool(q domain.PoolQuery) string {
	return digest(poolKey{
		Kind:        "pool",
		Pair:        pair(q.CurrencyA, q.CurrencyB),
		ChainID:     q.ChainID,
		Protocols:   q.Protocols,
		BlockNumber: q.BlockNumber,
	})
}

// Quote returns the key of a quote query. CreatedAt is not part of it.
// Decimals are, since prices are converted through them.
func Quote(q domain.QuoteQuery) string {
	return digest(quoteKey{
		Kind:        "quote",
		Pair:        pair(q.Amount.Currency, q.Currency),
		AmountSide:  keyOf(q.Amount.Currency),
		Amount:      amountString(q.Amount.Value),
		DecimalsIn:  q.CurrencyIn().Decimals,
		DecimalsOut: q.CurrencyOut().Decimals,
		TradeType:   q.TradeType,
		ChainID:     q.ChainID,
		Protocols:   q.Protocols,
		MaxHops:     q.MaxHops,
		MaxSplits:   q.MaxSplits,
		SlippageBps: q.SlippageBps,
		BlockNumber: q.BlockNumber,
		Nonce:       q.Nonce,
	})
}

// Strategy returns the key of one strategy run for a quote.
func Strategy(quote, name string, o Overrides) string {
	return digest(strategyKey{
		Kind:      "strategy",
		Quote:     quote,
		Name:      name,
		MaxHops:   o.MaxHops,
		MaxSplits: o.MaxSplits,
	})
}

func pair(a, b domain.Currency) pairKey {
	a, b = domain.SortedPair(a, b)
	return pairKey{Kind: "pair", A: keyOf(a), B: keyOf(b)}
}

func amountString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func digest(v any) string {
	raw, err := std.Marshal(v)
	if err != nil {
		// key structs hold only plain values
		panic(err)
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
