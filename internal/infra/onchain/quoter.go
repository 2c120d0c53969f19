package onchain

import (
	"context"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/fleshka4/smart-router/internal/domain"
)

// ErrUnsupportedPath is returned for paths no on-chain quoter can price in one call.
var ErrUnsupportedPath = errors.New("path mixes protocols or is unsupported")

// PathQuote is the on-chain price of a path.
type PathQuote struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	// GasEstimate is zero when the quoter does not report one.
	GasEstimate uint64
}

// QuotePath prices amount along path through pools. For exact-in the amount
// is sold at path[0]; for exact-out it is bought at the last currency.
// Only all-V2 and all-V3 paths are supported.
func (c *Client) QuotePath(
	ctx context.Context,
	tradeType domain.TradeType,
	path []domain.Currency,
	pools []domain.PoolRef,
	amount *big.Int,
	block uint64,
) (PathQuote, error) {
	if len(pools) == 0 || len(path) != len(pools)+1 {
		return PathQuote{}, errors.Wrap(ErrUnsupportedPath, "onchain.Client.QuotePath")
	}

	protocol := pools[0].Protocol
	for _, p := range pools[1:] {
		if p.Protocol != protocol {
			return PathQuote{}, errors.Wrap(ErrUnsupportedPath, "onchain.Client.QuotePath")
		}
	}

	switch {
	case protocol == domain.ProtocolV2 && c.cfg.V2Router != (common.Address{}):
		return c.quoteV2(ctx, tradeType, path, amount, block)
	case protocol == domain.ProtocolV3 && c.cfg.V3Quoter != (common.Address{}):
		return c.quoteV3(ctx, tradeType, path, pools, amount, block)
	default:
		return PathQuote{}, errors.Wrapf(ErrUnsupportedPath, "onchain.Client.QuotePath: %s", protocol)
	}
}

func (c *Client) quoteV2(
	ctx context.Context,
	tradeType domain.TradeType,
	path []domain.Currency,
	amount *big.Int,
	block uint64,
) (PathQuote, error) {
	addrs := make([]common.Address, len(path))
	for i, cur := range path {
		addrs[i] = cur.Wrapped().Address
	}

	method := "getAmountsOut"
	if tradeType == domain.ExactOutput {
		method = "getAmountsIn"
	}

	out, err := c.call(ctx, c.abis.routerV2, c.cfg.V2Router, block, method, amount, addrs)
	if err != nil {
		return PathQuote{}, errors.Wrap(err, "onchain.Client.quoteV2")
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok || len(amounts) != len(path) {
		return PathQuote{}, errors.Errorf("unexpected %s result", method)
	}

	return PathQuote{
		AmountIn:  amounts[0],
		AmountOut: amounts[len(amounts)-1],
	}, nil
}

func (c *Client) quoteV3(
	ctx context.Context,
	tradeType domain.TradeType,
	path []domain.Currency,
	pools []domain.PoolRef,
	amount *big.Int,
	block uint64,
) (PathQuote, error) {
	tokens := make([]common.Address, len(path))
	for i, cur := range path {
		tokens[i] = cur.Wrapped().Address
	}
	fees := make([]uint32, len(pools))
	for i, p := range pools {
		fees[i] = p.Fee
	}

	method := "quoteExactInput"
	if tradeType == domain.ExactOutput {
		// exact output paths are encoded from the output token backwards
		method = "quoteExactOutput"
		slices.Reverse(tokens)
		slices.Reverse(fees)
	}

	encoded, err := EncodePath(tokens, fees)
	if err != nil {
		return PathQuote{}, errors.Wrap(err, "onchain.Client.quoteV3")
	}

	out, err := c.call(ctx, c.abis.quoterV2, c.cfg.V3Quoter, block, method, encoded, amount)
	if err != nil {
		return PathQuote{}, errors.Wrap(err, "onchain.Client.quoteV3")
	}
	const requiredSize = 4
	if len(out) < requiredSize {
		return PathQuote{}, errors.Errorf("insufficient outputs from %s call: expected %d, got %d", method, requiredSize, len(out))
	}
	quoted, err := asBigInt(out[0], method)
	if err != nil {
		return PathQuote{}, err
	}
	gas, err := asBigInt(out[3], "gasEstimate")
	if err != nil {
		return PathQuote{}, err
	}

	q := PathQuote{GasEstimate: gas.Uint64()}
	if tradeType == domain.ExactOutput {
		q.AmountIn, q.AmountOut = quoted, new(big.Int).Set(amount)
	} else {
		q.AmountIn, q.AmountOut = new(big.Int).Set(amount), quoted
	}
	return q, nil
}

const maxUint24 = 1<<24 - 1

// EncodePath packs a V3 path as token(20) fee(3) token(20) ...
func EncodePath(tokens []common.Address, fees []uint32) ([]byte, error) {
	if len(tokens) != len(fees)+1 {
		return nil, errors.Errorf("path has %d tokens and %d fees", len(tokens), len(fees))
	}

	buf := make([]byte, 0, len(tokens)*common.AddressLength+len(fees)*3)
	for i, fee := range fees {
		if fee > maxUint24 {
			return nil, errors.Errorf("fee %d does not fit uint24", fee)
		}
		buf = append(buf, tokens[i].Bytes()...)
		buf = append(buf, byte(fee>>16), byte(fee>>8), byte(fee))
	}
	buf = append(buf, tokens[len(tokens)-1].Bytes()...)
	return buf, nil
}
