package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration loaded from file.
type Config struct {
	LogLevel string `yaml:"log_level"`
	ChainID  uint64 `yaml:"chain_id"`
	RPCURL   string `yaml:"rpc_url"`

	ListenAddr        string        `yaml:"listen_addr"`
	GraceTimeout      time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	Pools    PoolsConfig    `yaml:"pools"`
	Onchain  OnchainConfig  `yaml:"onchain"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Quote    QuoteConfig    `yaml:"quote"`
	Strategy StrategyConfig `yaml:"strategy"`
}

// PoolsConfig configures the candidate pool cache.
type PoolsConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	MaxEntries   int           `yaml:"max_entries"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// OnchainConfig holds the contract addresses used by on-chain providers.
type OnchainConfig struct {
	V2Factory   string        `yaml:"v2_factory"`
	V2Router    string        `yaml:"v2_router"`
	V2Fee       uint32        `yaml:"v2_fee"`
	V3Factory   string        `yaml:"v3_factory"`
	V3Quoter    string        `yaml:"v3_quoter"`
	V3FeeTiers  []uint32      `yaml:"v3_fee_tiers"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// PricingConfig configures the external pricing API. An empty URL disables it.
type PricingConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// QuoteConfig configures the orchestrator and sessions.
type QuoteConfig struct {
	Workers             int           `yaml:"workers"`
	MaxNodes            int           `yaml:"max_nodes"`
	RevalidateInterval  time.Duration `yaml:"revalidate_interval"`
	RevalidateThreshold time.Duration `yaml:"revalidate_threshold"`
	DefaultMaxHops      int           `yaml:"default_max_hops"`
	DefaultMaxSplits    int           `yaml:"default_max_splits"`
	DefaultSlippageBps  uint32        `yaml:"default_slippage_bps"`
}

// StrategyConfig toggles routes of the default table.
type StrategyConfig struct {
	DisableLight    bool `yaml:"disable_light"`
	DisableOffchain bool `yaml:"disable_offchain"`
	DisableOnchain  bool `yaml:"disable_onchain"`
	OnchainPaths    int  `yaml:"onchain_paths"`
	OnchainParallel int  `yaml:"onchain_parallel"`
}

// Load reads the config from a YAML file path.
// Fails fatally if config is invalid or file is missing.
func Load(path string) Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: os.Open: %v", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Printf("failed to close config file: f.Close: %v", err)
		}
	}(f)

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to parse config file: decoder.Decode: %v", err)
	}

	cfg.applyDefaults()

	if cfg.RPCURL == "" {
		log.Fatalf("rpc_url is required in config")
	}
	if cfg.Quote.DefaultSlippageBps > 10_000 {
		log.Fatalf("quote.default_slippage_bps must not exceed 10000")
	}

	return cfg
}

func (cfg *Config) applyDefaults() {
	// Fallbacks
	const defaultTimeout = 5 * time.Second
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 56
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":1337"
	}
	if cfg.GraceTimeout == 0 {
		cfg.GraceTimeout = defaultTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaultTimeout
	}

	if cfg.Pools.TTL == 0 {
		cfg.Pools.TTL = 15 * time.Second
	}
	if cfg.Pools.MaxEntries == 0 {
		cfg.Pools.MaxEntries = 1024
	}
	if cfg.Pools.FetchTimeout == 0 {
		cfg.Pools.FetchTimeout = 15 * time.Second
	}

	if cfg.Onchain.CallTimeout == 0 {
		cfg.Onchain.CallTimeout = defaultTimeout
	}

	if cfg.Pricing.Timeout == 0 {
		cfg.Pricing.Timeout = 15 * time.Second
	}

	if cfg.Quote.Workers == 0 {
		cfg.Quote.Workers = 4
	}
	if cfg.Quote.MaxNodes == 0 {
		cfg.Quote.MaxNodes = 256
	}
	if cfg.Quote.RevalidateInterval == 0 {
		cfg.Quote.RevalidateInterval = time.Second
	}
	if cfg.Quote.RevalidateThreshold == 0 {
		cfg.Quote.RevalidateThreshold = 10 * time.Second
	}
	if cfg.Quote.DefaultMaxHops == 0 {
		cfg.Quote.DefaultMaxHops = 3
	}
	if cfg.Quote.DefaultMaxSplits == 0 {
		cfg.Quote.DefaultMaxSplits = 2
	}
	if cfg.Quote.DefaultSlippageBps == 0 {
		cfg.Quote.DefaultSlippageBps = 50
	}
}
