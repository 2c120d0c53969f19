// Package pricing is a client of an external quote/price aggregator.
package pricing

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/fleshka4/smart-router/internal/domain"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 1 << 20
)

var (
	// ErrRateLimited is returned when the API answers 429.
	ErrRateLimited = errors.New("pricing api rate limited")
	// ErrNoQuote is returned when the API has neither amounts nor a price.
	ErrNoQuote = errors.New("pricing api returned no quote")
)

// Config of the pricing API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls GET {base}/quote.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient means http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
	}
}

// Hop is one pool of the route reported by the API.
type Hop struct {
	Protocol string         `json:"protocol"`
	Address  common.Address `json:"address"`
	Fee      uint32         `json:"fee"`
}

type quoteResponse struct {
	AmountIn    string           `json:"amountIn"`
	AmountOut   string           `json:"amountOut"`
	Price       *decimal.Decimal `json:"price"`
	GasEstimate uint64           `json:"gasEstimate"`
	Route       []Hop            `json:"route"`
}

// Quote is the API answer in raw integer amounts.
type Quote struct {
	AmountIn    *big.Int
	AmountOut   *big.Int
	GasEstimate uint64
	Route       []Hop
}

// Quote asks the API for q. The call is aborted when ctx is done.
func (c *Client) Quote(ctx context.Context, q domain.QuoteQuery) (Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+queryParams(q).Encode(), nil)
	if err != nil {
		return Quote{}, errors.Wrap(err, "http.NewRequestWithContext")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, errors.Wrap(err, "c.httpClient.Do")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return Quote{}, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return Quote{}, errors.Errorf("pricing api: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Quote{}, errors.Wrap(err, "io.ReadAll")
	}

	var raw quoteResponse
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return Quote{}, errors.Wrap(err, "sonic.Unmarshal")
	}

	return toQuote(q, raw)
}

func queryParams(q domain.QuoteQuery) url.Values {
	v := url.Values{}
	v.Set("chainId", strconv.FormatUint(q.ChainID, 10))
	v.Set("tokenIn", q.CurrencyIn().Address.Hex())
	v.Set("tokenOut", q.CurrencyOut().Address.Hex())
	v.Set("amount", q.Amount.Value.String())
	v.Set("tradeType", q.TradeType.String())
	v.Set("slippageBps", strconv.FormatUint(uint64(q.SlippageBps), 10))
	v.Set("maxHops", strconv.Itoa(q.MaxHops))
	return v
}

func toQuote(q domain.QuoteQuery, raw quoteResponse) (Quote, error) {
	out := Quote{GasEstimate: raw.GasEstimate, Route: raw.Route}

	specified := new(big.Int).Set(q.Amount.Value)
	if q.TradeType == domain.ExactInput {
		out.AmountIn = specified
	} else {
		out.AmountOut = specified
	}

	if q.TradeType == domain.ExactInput && raw.AmountOut != "" {
		v, ok := new(big.Int).SetString(raw.AmountOut, 10)
		if !ok {
			return Quote{}, errors.Errorf("pricing api: bad amountOut %q", raw.AmountOut)
		}
		out.AmountOut = v
		return out, nil
	}
	if q.TradeType == domain.ExactOutput && raw.AmountIn != "" {
		v, ok := new(big.Int).SetString(raw.AmountIn, 10)
		if !ok {
			return Quote{}, errors.Errorf("pricing api: bad amountIn %q", raw.AmountIn)
		}
		out.AmountIn = v
		return out, nil
	}

	if raw.Price == nil || !raw.Price.IsPositive() {
		return Quote{}, ErrNoQuote
	}

	in, outCur := q.CurrencyIn(), q.CurrencyOut()
	if q.TradeType == domain.ExactInput {
		out.AmountOut = FromPrice(specified, in.Decimals, outCur.Decimals, *raw.Price, false)
	} else {
		out.AmountIn = FromPrice(specified, outCur.Decimals, in.Decimals, decimal.NewFromInt(1).Div(*raw.Price), true)
	}
	return out, nil
}

// FromPrice converts a raw amount of one currency into raw units of another
// at price (units of the target per unit of the source).
func FromPrice(amount *big.Int, fromDecimals, toDecimals uint8, price decimal.Decimal, roundUp bool) *big.Int {
	v := decimal.NewFromBigInt(amount, -int32(fromDecimals)).
		Mul(price).
		Shift(int32(toDecimals))
	if roundUp {
		return v.Ceil().BigInt()
	}
	return v.Floor().BigInt()
}
