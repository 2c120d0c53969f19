package onchain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/fleshka4/smart-router/internal/domain"
)

var q96 = new(big.Int).Lsh(big.NewInt(1), 96)

const tickConcurrency = 8

// GetPools returns the pools of protocol between the wrapped forms of
// q.CurrencyA and q.CurrencyB. Protocols without an on-chain reader yield
// nothing.
func (c *Client) GetPools(ctx context.Context, protocol domain.Protocol, q domain.PoolQuery, withState bool) ([]domain.Pool, error) {
	token0, token1 := domain.SortedPair(q.CurrencyA.Wrapped(), q.CurrencyB.Wrapped())
	if token0.Equal(token1) {
		return nil, nil
	}

	switch protocol {
	case domain.ProtocolV2:
		if c.cfg.V2Factory == (common.Address{}) {
			return nil, nil
		}
		pool, ok, err := c.v2Pool(ctx, token0, token1, q.BlockNumber)
		if err != nil || !ok {
			return nil, err
		}
		return []domain.Pool{pool}, nil
	case domain.ProtocolV3:
		if c.cfg.V3Factory == (common.Address{}) {
			return nil, nil
		}
		return c.v3Pools(ctx, token0, token1, q.BlockNumber, withState)
	default:
		return nil, nil
	}
}

func (c *Client) v2Pool(ctx context.Context, token0, token1 domain.Currency, block uint64) (domain.Pool, bool, error) {
	out, err := c.call(ctx, c.abis.factoryV2, c.cfg.V2Factory, block, "getPair", token0.Address, token1.Address)
	if err != nil {
		return domain.Pool{}, false, errors.Wrap(err, "onchain.Client.v2Pool")
	}
	pair, err := asAddress(out[0], "getPair")
	if err != nil {
		return domain.Pool{}, false, err
	}
	if pair == (common.Address{}) {
		return domain.Pool{}, false, nil
	}

	first, reserveA, reserveB, err := c.pairState(ctx, pair, block)
	if err != nil {
		return domain.Pool{}, false, errors.Wrap(err, "onchain.Client.v2Pool")
	}
	if first != token0.Address {
		reserveA, reserveB = reserveB, reserveA
	}

	return domain.Pool{
		Protocol: domain.ProtocolV2,
		Address:  pair,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserveA,
		Reserve1: reserveB,
		Fee:      c.cfg.V2Fee,
	}, true, nil
}

// pairState reads token0 and the reserves of a V2 pair concurrently.
func (c *Client) pairState(ctx context.Context, pair common.Address, block uint64) (common.Address, *big.Int, *big.Int, error) {
	var (
		wg sync.WaitGroup

		token0             common.Address
		reserve0, reserve1 *big.Int
		tokenErr, resErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()

		out, err := c.call(ctx, c.abis.pairV2, pair, block, "token0")
		if err != nil {
			tokenErr = errors.Wrap(err, "failed to call token0")
			return
		}
		token0, tokenErr = asAddress(out[0], "token0")
	}()
	go func() {
		defer wg.Done()

		out, err := c.call(ctx, c.abis.pairV2, pair, block, "getReserves")
		if err != nil {
			resErr = errors.Wrap(err, "failed to call getReserves")
			return
		}
		const requiredSize = 2
		if len(out) < requiredSize {
			resErr = errors.Errorf("insufficient outputs from getReserves call: expected %d, got %d", requiredSize, len(out))
			return
		}
		if reserve0, resErr = asBigInt(out[0], "reserve0"); resErr != nil {
			return
		}
		reserve1, resErr = asBigInt(out[1], "reserve1")
	}()
	wg.Wait()

	if err := multierr.Combine(tokenErr, resErr); err != nil {
		return common.Address{}, nil, nil, errors.Wrap(err, "failed to get pair state")
	}
	return token0, reserve0, reserve1, nil
}

func (c *Client) v3Pools(ctx context.Context, token0, token1 domain.Currency, block uint64, withTicks bool) ([]domain.Pool, error) {
	found := make([]*domain.Pool, len(c.cfg.V3FeeTiers))

	g, gctx := errgroup.WithContext(ctx)
	for i, fee := range c.cfg.V3FeeTiers {
		g.Go(func() error {
			pool, ok, err := c.v3Pool(gctx, token0, token1, fee, block, withTicks)
			if err != nil {
				return errors.Wrapf(err, "fee tier %d", fee)
			}
			if ok {
				found[i] = &pool
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "onchain.Client.v3Pools")
	}

	var out []domain.Pool
	for _, p := range found {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (c *Client) v3Pool(ctx context.Context, token0, token1 domain.Currency, fee uint32, block uint64, withTicks bool) (domain.Pool, bool, error) {
	out, err := c.call(ctx, c.abis.factoryV3, c.cfg.V3Factory, block, "getPool",
		token0.Address, token1.Address, new(big.Int).SetUint64(uint64(fee)))
	if err != nil {
		return domain.Pool{}, false, err
	}
	addr, err := asAddress(out[0], "getPool")
	if err != nil || addr == (common.Address{}) {
		return domain.Pool{}, false, err
	}

	out, err = c.call(ctx, c.abis.poolV3, addr, block, "slot0")
	if err != nil {
		return domain.Pool{}, false, err
	}
	sqrtPrice, err := asBigInt(out[0], "sqrtPriceX96")
	if err != nil {
		return domain.Pool{}, false, err
	}
	current, err := asBigInt(out[1], "tick")
	if err != nil {
		return domain.Pool{}, false, err
	}

	out, err = c.call(ctx, c.abis.poolV3, addr, block, "liquidity")
	if err != nil {
		return domain.Pool{}, false, err
	}
	liquidity, err := asBigInt(out[0], "liquidity")
	if err != nil {
		return domain.Pool{}, false, err
	}

	if sqrtPrice.Sign() == 0 || liquidity.Sign() == 0 {
		return domain.Pool{}, false, nil
	}

	reserve0, reserve1 := VirtualReserves(liquidity, sqrtPrice)
	pool := domain.Pool{
		Protocol: domain.ProtocolV3,
		Address:  addr,
		Token0:   token0,
		Token1:   token1,
		Reserve0: reserve0,
		Reserve1: reserve1,
		Fee:      fee,
	}
	if withTicks {
		if pool.Ticks, err = c.v3Ticks(ctx, addr, int32(current.Int64()), block); err != nil {
			return domain.Pool{}, false, errors.Wrap(err, "onchain.Client.v3Ticks")
		}
	}
	return pool, true, nil
}

// tickWords is how many bitmap words on each side of the current one are read.
const tickWords = 1

// v3Ticks reads the initialized ticks in the bitmap words around current,
// ordered by index.
func (c *Client) v3Ticks(ctx context.Context, pool common.Address, current int32, block uint64) ([]domain.Tick, error) {
	out, err := c.call(ctx, c.abis.poolV3, pool, block, "tickSpacing")
	if err != nil {
		return nil, err
	}
	spacing, err := asBigInt(out[0], "tickSpacing")
	if err != nil {
		return nil, err
	}
	if spacing.Sign() <= 0 {
		return nil, errors.Errorf("invalid tick spacing %s", spacing)
	}
	step := int32(spacing.Int64())

	compressed := current / step
	if current < 0 && current%step != 0 {
		compressed--
	}
	word := compressed >> 8

	var indexes []int32
	for pos := word - tickWords; pos <= word+tickWords; pos++ {
		out, err := c.call(ctx, c.abis.poolV3, pool, block, "tickBitmap", int16(pos))
		if err != nil {
			return nil, err
		}
		bitmap, err := asBigInt(out[0], "tickBitmap")
		if err != nil {
			return nil, err
		}
		for bit := 0; bit < 256; bit++ {
			if bitmap.Bit(bit) == 1 {
				indexes = append(indexes, (pos*256+int32(bit))*step)
			}
		}
	}

	ticks := make([]*domain.Tick, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tickConcurrency)
	for i, index := range indexes {
		g.Go(func() error {
			out, err := c.call(gctx, c.abis.poolV3, pool, block, "ticks", big.NewInt(int64(index)))
			if err != nil {
				return errors.Wrapf(err, "tick %d", index)
			}
			const requiredSize = 8
			if len(out) < requiredSize {
				return errors.Errorf("insufficient outputs from ticks call: expected %d, got %d", requiredSize, len(out))
			}
			if initialized, _ := out[7].(bool); !initialized {
				return nil
			}
			net, err := asBigInt(out[1], "liquidityNet")
			if err != nil {
				return err
			}
			ticks[i] = &domain.Tick{Index: index, LiquidityNet: net}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []domain.Tick
	for _, t := range ticks {
		if t != nil {
			result = append(result, *t)
		}
	}
	return result, nil
}

// VirtualReserves converts in-range liquidity and a Q64.96 square root
// price into the constant product reserves that quote the same marginal price.
func VirtualReserves(liquidity, sqrtPriceX96 *big.Int) (*big.Int, *big.Int) {
	r0 := new(big.Int).Mul(liquidity, q96)
	r0.Quo(r0, sqrtPriceX96)

	r1 := new(big.Int).Mul(liquidity, sqrtPriceX96)
	r1.Quo(r1, q96)

	return r0, r1
}
