package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fleshka4/smart-router/internal/config"
	"github.com/fleshka4/smart-router/internal/infra/onchain"
	"github.com/fleshka4/smart-router/internal/infra/pricing"
	"github.com/fleshka4/smart-router/internal/pools"
	"github.com/fleshka4/smart-router/internal/router"
	"github.com/fleshka4/smart-router/internal/service"
	"github.com/fleshka4/smart-router/internal/strategy"
	transport "github.com/fleshka4/smart-router/internal/transport/http"
	"github.com/fleshka4/smart-router/internal/worker"
)

const defaultConfigPath = "cfg/config.yaml"

func main() {
	root := &cobra.Command{
		Use:          "smart-router",
		Short:        "Quote routing service",
		SilenceUsage: true,
		RunE:         runServer,
	}

	root.PersistentFlags().String("config", "", "config file path (default $CONFIG_PATH or "+defaultConfigPath+")")
	root.Flags().String("log-level", "", "log level override (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg := config.Load(path)
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "newLogger")
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chain, err := onchain.NewClient(cfg.RPCURL, onchainConfig(cfg.Onchain))
	if err != nil {
		return errors.Wrap(err, "onchain.NewClient")
	}

	cache, err := pools.NewCache(cfg.Pools.MaxEntries, cfg.Pools.TTL)
	if err != nil {
		return errors.Wrap(err, "pools.NewCache")
	}
	candidates := pools.NewSet(logger, pools.NewFetchers(chain, cache,
		pools.WithTimeout(cfg.Pools.FetchTimeout),
		pools.WithLogger(logger),
	)...)

	workers := worker.New(cfg.Quote.Workers, router.New(), worker.WithLogger(logger))
	workers.Start()
	defer workers.Stop()

	// a disabled route must stay an untyped nil executor
	var light, offchain, api, onchainRoute strategy.Executor
	if !cfg.Strategy.DisableLight {
		light = strategy.NewLight(candidates, workers)
	}
	if !cfg.Strategy.DisableOffchain {
		offchain = strategy.NewOffchain(candidates, workers)
	}
	if cfg.Pricing.BaseURL != "" {
		api = strategy.NewAPI(pricing.NewClient(pricing.Config{
			BaseURL: cfg.Pricing.BaseURL,
			APIKey:  cfg.Pricing.APIKey,
			Timeout: cfg.Pricing.Timeout,
		}, nil))
	}
	if !cfg.Strategy.DisableOnchain {
		onchainRoute = strategy.NewOnchain(candidates, chain,
			strategy.WithMaxPaths(cfg.Strategy.OnchainPaths),
			strategy.WithQuoteConcurrency(cfg.Strategy.OnchainParallel),
		)
	}

	tables := strategy.NewTables(nil)
	tables.Set(cfg.ChainID, strategy.DefaultTable(light, offchain, api, onchainRoute))

	svc, err := service.NewQuoteService(tables,
		service.WithLogger(logger),
		service.WithMaxNodes(cfg.Quote.MaxNodes),
	)
	if err != nil {
		return errors.Wrap(err, "service.NewQuoteService")
	}

	srv, err := transport.NewServer(svc, &cfg, logger)
	if err != nil {
		return errors.Wrap(err, "transport.NewServer")
	}

	logger.Info("smart router start",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("workers", cfg.Quote.Workers),
		zap.Bool("light", light != nil),
		zap.Bool("offchain", offchain != nil),
		zap.Bool("api", api != nil),
		zap.Bool("onchain", onchainRoute != nil),
	)

	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}

func onchainConfig(c config.OnchainConfig) onchain.Config {
	return onchain.Config{
		V2Factory:   common.HexToAddress(c.V2Factory),
		V2Router:    common.HexToAddress(c.V2Router),
		V2Fee:       c.V2Fee,
		V3Factory:   common.HexToAddress(c.V3Factory),
		V3Quoter:    common.HexToAddress(c.V3Quoter),
		V3FeeTiers:  c.V3FeeTiers,
		CallTimeout: c.CallTimeout,
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
