package domain

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Protocol is a liquidity pool type.
type Protocol uint8

const (
	ProtocolV2 Protocol = iota
	ProtocolV3
	ProtocolStable
	ProtocolInfinityCL
	ProtocolInfinityBin
)

// Protocols lists every supported pool type in a fixed order.
var Protocols = []Protocol{ProtocolV2, ProtocolV3, ProtocolStable, ProtocolInfinityCL, ProtocolInfinityBin}

var protocolNames = map[Protocol]string{
	ProtocolV2:          "v2",
	ProtocolV3:          "v3",
	ProtocolStable:      "stable",
	ProtocolInfinityCL:  "infinity_cl",
	ProtocolInfinityBin: "infinity_bin",
}

func (p Protocol) String() string {
	if s, ok := protocolNames[p]; ok {
		return s
	}
	return "unknown"
}

// ParseProtocol is the inverse of Protocol.String.
func ParseProtocol(s string) (Protocol, error) {
	for p, name := range protocolNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return 0, errors.Errorf("unknown protocol %q", s)
}

// ProtocolSet is a bit set of eligible pool types.
type ProtocolSet uint8

// AllProtocols enables every pool type.
const AllProtocols = ProtocolSet(1<<ProtocolV2 | 1<<ProtocolV3 | 1<<ProtocolStable | 1<<ProtocolInfinityCL | 1<<ProtocolInfinityBin)

// NewProtocolSet builds a set from the given protocols.
func NewProtocolSet(ps ...Protocol) ProtocolSet {
	var s ProtocolSet
	for _, p := range ps {
		s |= 1 << p
	}
	return s
}

// Has reports whether p is enabled.
func (s ProtocolSet) Has(p Protocol) bool {
	return s&(1<<p) != 0
}

// List returns the enabled protocols in canonical order.
func (s ProtocolSet) List() []Protocol {
	out := make([]Protocol, 0, len(Protocols))
	for _, p := range Protocols {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// TradeType is the direction of a trade.
type TradeType uint8

const (
	ExactInput TradeType = iota
	ExactOutput
)

func (t TradeType) String() string {
	if t == ExactOutput {
		return "exact_out"
	}
	return "exact_in"
}

// QuoteQuery is a trade intent. Amount is the specified side: the input for
// ExactInput, the output for ExactOutput. Currency is the other side.
//
// A query is immutable once fingerprinted; a fresh computation of the same
// intent is requested by bumping Nonce.
type QuoteQuery struct {
	Amount      CurrencyAmount `json:"amount"`
	Currency    Currency       `json:"currency"`
	TradeType   TradeType      `json:"tradeType"`
	ChainID     uint64         `json:"chainId"`
	Protocols   ProtocolSet    `json:"protocols"`
	MaxHops     int            `json:"maxHops"`
	MaxSplits   int            `json:"maxSplits"`
	SlippageBps uint32         `json:"slippageBps"`
	BlockNumber uint64         `json:"blockNumber,omitempty"`
	Nonce       uint64         `json:"nonce"`

	// CreatedAt is used for revalidation and telemetry only.
	CreatedAt time.Time `json:"-"`
}

// CurrencyIn returns the currency being sold.
func (q QuoteQuery) CurrencyIn() Currency {
	if q.TradeType == ExactOutput {
		return q.Currency
	}
	return q.Amount.Currency
}

// CurrencyOut returns the currency being bought.
func (q QuoteQuery) CurrencyOut() Currency {
	if q.TradeType == ExactOutput {
		return q.Amount.Currency
	}
	return q.Currency
}

// PoolQuery returns the candidate pool query for q.
func (q QuoteQuery) PoolQuery() PoolQuery {
	return PoolQuery{
		CurrencyA:   q.Amount.Currency,
		CurrencyB:   q.Currency,
		ChainID:     q.ChainID,
		Protocols:   q.Protocols,
		BlockNumber: q.BlockNumber,
	}
}

// SameIntent reports whether q and o differ at most in Nonce and CreatedAt.
func (q QuoteQuery) SameIntent(o QuoteQuery) bool {
	q.Nonce, o.Nonce = 0, 0
	q.CreatedAt, o.CreatedAt = time.Time{}, time.Time{}
	if (q.Amount.Value == nil) != (o.Amount.Value == nil) {
		return false
	}
	if q.Amount.Value != nil && q.Amount.Value.Cmp(o.Amount.Value) != 0 {
		return false
	}
	q.Amount.Value, o.Amount.Value = nil, nil
	return q == o
}

// PoolQuery asks for the pools between two currencies. The pair is unordered.
type PoolQuery struct {
	CurrencyA   Currency    `json:"currencyA"`
	CurrencyB   Currency    `json:"currencyB"`
	ChainID     uint64      `json:"chainId"`
	Protocols   ProtocolSet `json:"protocols"`
	BlockNumber uint64      `json:"blockNumber,omitempty"`
}
