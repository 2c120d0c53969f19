package onchain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

const (
	defaultCallTimeout = 5 * time.Second
	defaultV2Fee       = 2500
)

// DefaultV3FeeTiers are the fee tiers probed when none are configured.
var DefaultV3FeeTiers = []uint32{100, 500, 2500, 10000}

// EthCaller represents interface for calling contracts.
type EthCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds the contract addresses of one chain deployment.
type Config struct {
	V2Factory  common.Address
	V2Router   common.Address
	V2Fee      uint32
	V3Factory  common.Address
	V3Quoter   common.Address
	V3FeeTiers []uint32

	CallTimeout time.Duration
}

type abis struct {
	factoryV2 abi.ABI
	pairV2    abi.ABI
	routerV2  abi.ABI
	factoryV3 abi.ABI
	poolV3    abi.ABI
	quoterV2  abi.ABI
}

// Client reads V2 and V3 pool state and quotes paths on chain.
type Client struct {
	caller EthCaller
	abis   abis
	cfg    Config
}

// NewClient creates a new Client backed by an Ethereum RPC connection.
func NewClient(rpcURL string, cfg Config) (*Client, error) {
	caller, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "ethclient.Dial")
	}

	return NewClientWithCaller(caller, cfg)
}

// NewClientWithCaller creates a Client on top of an existing caller.
func NewClientWithCaller(caller EthCaller, cfg Config) (*Client, error) {
	var (
		parsed abis
		err    error
	)
	for _, a := range []struct {
		dst  *abi.ABI
		json string
	}{
		{&parsed.factoryV2, factoryV2ABIJSON},
		{&parsed.pairV2, pairV2ABIJSON},
		{&parsed.routerV2, routerV2ABIJSON},
		{&parsed.factoryV3, factoryV3ABIJSON},
		{&parsed.poolV3, poolV3ABIJSON},
		{&parsed.quoterV2, quoterV2ABIJSON},
	} {
		if *a.dst, err = abi.JSON(strings.NewReader(a.json)); err != nil {
			return nil, errors.Wrap(err, "abi.JSON")
		}
	}

	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.V2Fee == 0 {
		cfg.V2Fee = defaultV2Fee
	}
	if len(cfg.V3FeeTiers) == 0 {
		cfg.V3FeeTiers = DefaultV3FeeTiers
	}

	return &Client{
		caller: caller,
		abis:   parsed,
		cfg:    cfg,
	}, nil
}

func blockArg(blockNumber uint64) *big.Int {
	if blockNumber == 0 {
		return nil
	}
	return new(big.Int).SetUint64(blockNumber)
}

func (c *Client) call(
	ctx context.Context,
	contract abi.ABI,
	to common.Address,
	blockNumber uint64,
	method string,
	args ...any,
) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrap(err, "contract.Pack")
	}

	ctxCall, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	res, err := c.caller.CallContract(
		ctxCall,
		ethereum.CallMsg{
			To:   &to,
			Data: data,
		},
		blockArg(blockNumber),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "c.caller.CallContract %s", method)
	}

	out, err := contract.Unpack(method, res)
	if err != nil {
		return nil, errors.Wrapf(err, "contract.Unpack %s", method)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("empty output from %s", method)
	}

	return out, nil
}

func asAddress(v any, name string) (common.Address, error) {
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, errors.Errorf("failed to cast %s result to address", name)
	}
	return addr, nil
}

func asBigInt(v any, name string) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return nil, errors.Errorf("failed to cast %s to *big.Int", name)
	}
	return n, nil
}
