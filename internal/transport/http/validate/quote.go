package validate

import (
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/smart-router/internal/domain"
	"github.com/fleshka4/smart-router/internal/transport/http/dto"
)

const defaultDecimals = 18

// Defaults fill the optional parameters of a quote request.
type Defaults struct {
	ChainID     uint64
	MaxHops     int
	MaxSplits   int
	SlippageBps uint32
}

// QuoteRequestValidate validates /quote request and returns dto.
func QuoteRequestValidate(r *http.Request, d Defaults) (*dto.QuoteRequest, int, error) {
	if r.Method != http.MethodGet {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	q := r.URL.Query()
	in := q.Get("token_in")
	out := q.Get("token_out")
	amt := q.Get("amount")
	if in == "" || out == "" || amt == "" {
		return nil, http.StatusBadRequest, errors.New("missing params")
	}

	chainID, err := uintParam(q, "chain_id", d.ChainID, 64)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	currencyIn, err := currency(in, q.Get("decimals_in"), chainID)
	if err != nil {
		return nil, http.StatusBadRequest, errors.Wrap(err, "token_in")
	}
	currencyOut, err := currency(out, q.Get("decimals_out"), chainID)
	if err != nil {
		return nil, http.StatusBadRequest, errors.Wrap(err, "token_out")
	}

	a, ok := new(big.Int).SetString(amt, 10)
	if !ok || a.Sign() <= 0 {
		return nil, http.StatusBadRequest, errors.New("bad amount")
	}

	tradeType := domain.ExactInput
	switch tt := q.Get("trade_type"); tt {
	case "", domain.ExactInput.String():
	case domain.ExactOutput.String():
		tradeType = domain.ExactOutput
	default:
		return nil, http.StatusBadRequest, errors.Errorf("bad trade_type %q", tt)
	}

	maxHops, err := uintParam(q, "max_hops", uint64(d.MaxHops), 8)
	if err != nil || maxHops == 0 {
		return nil, http.StatusBadRequest, errors.New("bad max_hops")
	}
	maxSplits, err := uintParam(q, "max_splits", uint64(d.MaxSplits), 8)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	slippage, err := uintParam(q, "slippage_bps", uint64(d.SlippageBps), 32)
	if err != nil || slippage > 10_000 {
		return nil, http.StatusBadRequest, errors.New("bad slippage_bps")
	}
	block, err := uintParam(q, "block", 0, 64)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	protocols := domain.AllProtocols
	if raw := q.Get("protocols"); raw != "" {
		var list []domain.Protocol
		for _, name := range strings.Split(raw, ",") {
			p, err := domain.ParseProtocol(strings.TrimSpace(name))
			if err != nil {
				return nil, http.StatusBadRequest, errors.Wrap(err, "protocols")
			}
			list = append(list, p)
		}
		protocols = domain.NewProtocolSet(list...)
	}

	query := domain.QuoteQuery{
		Amount:      domain.CurrencyAmount{Currency: currencyIn, Value: a},
		Currency:    currencyOut,
		TradeType:   tradeType,
		ChainID:     chainID,
		Protocols:   protocols,
		MaxHops:     int(maxHops),
		MaxSplits:   int(maxSplits),
		SlippageBps: uint32(slippage),
		BlockNumber: block,
	}
	if tradeType == domain.ExactOutput {
		query.Amount.Currency, query.Currency = currencyOut, currencyIn
	}

	return &dto.QuoteRequest{Query: query}, 0, nil
}

func currency(addr, decimals string, chainID uint64) (domain.Currency, error) {
	c := domain.Currency{ChainID: chainID, Decimals: defaultDecimals}
	if decimals != "" {
		d, err := strconv.ParseUint(decimals, 10, 8)
		if err != nil {
			return domain.Currency{}, errors.New("bad decimals")
		}
		c.Decimals = uint8(d)
	}

	if strings.EqualFold(addr, "native") {
		return c, nil
	}
	if !common.IsHexAddress(addr) {
		return domain.Currency{}, errors.New("bad address format")
	}
	c.Address = common.HexToAddress(addr)
	return c, nil
}

func uintParam(q url.Values, key string, fallback uint64, bits int) (uint64, error) {
	raw := q.Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseUint(raw, 10, bits)
	if err != nil {
		return 0, errors.Errorf("bad %s", key)
	}
	return v, nil
}
