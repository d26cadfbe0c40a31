package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/big"
	"os"
	"os/signal"

	"github.com/hellodex/swapengine/aggregator"
	"github.com/hellodex/swapengine/audit"
	"github.com/hellodex/swapengine/chain"
	"github.com/hellodex/swapengine/config"
	"github.com/hellodex/swapengine/executor"
	"github.com/hellodex/swapengine/logger"
	"github.com/hellodex/swapengine/model"
	"github.com/hellodex/swapengine/oracle"
	"github.com/hellodex/swapengine/provider"
	"github.com/hellodex/swapengine/store"
	"github.com/hellodex/swapengine/util"
	"github.com/shopspring/decimal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ = func() any {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05"
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = *logger.StdLogger()
	return nil
}()

func main() {
	var (
		confPath    = flag.String("config", "config.yml", "path to config file")
		tokenIn     = flag.String("token-in", "", "input token address")
		tokenOut    = flag.String("token-out", "", "output token address")
		amount      = flag.String("amount", "1", "input amount in human units")
		decimalsIn  = flag.Int("decimals-in", 18, "input token decimals")
		decimalsOut = flag.Int("decimals-out", 18, "output token decimals")
		slippage    = flag.Float64("slippage", 0.5, "slippage tolerance in percent")
		symbol      = flag.String("symbol", "", "input token symbol, used for the volume cap")
		execute     = flag.Bool("execute", false, "run the guarded execution pipeline after quoting")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *confPath).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.Env.LogLevel); err == nil && cfg.Env.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	agg := buildAggregator(cfg)
	exec := buildExecutor(cfg)

	rawIn, err := util.ParseTokenAmountByDecimals(*amount, int32(*decimalsIn))
	if err != nil {
		log.Fatal().Str("amount", *amount).Err(err).Msg("invalid amount")
	}
	amountWei, ok := new(big.Int).SetString(rawIn, 10)
	if !ok || amountWei.Sign() <= 0 {
		log.Fatal().Str("amount", *amount).Msg("amount must be a positive decimal")
	}

	req := model.SwapRequest{
		TokenIn:  *tokenIn,
		TokenOut: *tokenOut,
		AmountIn: amountWei,
		ChainID:  cfg.Chain.ChainId,
		Slippage: *slippage,
	}

	quote, err := agg.GetBestQuote(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("no quote")
	}
	printJSON(quote)

	if !*execute {
		return
	}

	expected := util.FromSmallestUnit(quote.AmountOutInt(), int32(*decimalsOut))
	result := exec.Execute(ctx, model.ExecutionRequest{
		TokenIn:          *tokenIn,
		TokenOut:         *tokenOut,
		AmountIn:         util.FromSmallestUnit(amountWei, int32(*decimalsIn)),
		ExpectedOutput:   expected,
		SlippageBps:      util.PercentToBps(*slippage),
		TokenInDecimals:  int32(*decimalsIn),
		TokenOutDecimals: int32(*decimalsOut),
		Symbol:           *symbol,
	})
	printJSON(result)
	printJSON(exec.VolumeStatus())
}

func buildAggregator(cfg *config.Config) *aggregator.Aggregator {
	timeout := cfg.ProviderTimeout()

	names := cfg.Aggregator.Providers
	if len(names) == 0 {
		names = []string{"oneinch", "openocean"}
	}

	var providers []provider.Adapter
	for _, name := range names {
		switch name {
		case "oneinch":
			providers = append(providers, provider.NewOneInch(cfg.Providers.OneInch.BaseUrl, cfg.Providers.OneInch.ApiKey, timeout))
		case "openocean":
			providers = append(providers, provider.NewOpenOcean(cfg.Providers.OpenOcean.BaseUrl, timeout))
		case "uniswap":
			if cfg.Chain.RpcUrl == "" {
				log.Warn().Str("provider", name).Msg("no rpc url configured, skipping on-chain quoter")
				continue
			}
			q, err := provider.NewUniswapQuoter(cfg.Chain.RpcUrl, cfg.Chain.ChainId)
			if err != nil {
				log.Warn().Err(err).Msg("on-chain quoter unavailable")
				continue
			}
			providers = append(providers, q)
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in config, skipping")
		}
	}

	var cache *store.QuoteCache
	if ttl := cfg.QuoteCacheTTL(); ttl > 0 {
		cache = store.NewQuoteCache(ttl)
	}

	return aggregator.New(providers, aggregator.Config{
		ProviderTimeout: timeout,
		RetryPolicy:     cfg.RetryPolicy(),
		MaxAttempts:     cfg.Retry.MaxAttempts,
		Cache:           cache,
	})
}

func buildExecutor(cfg *config.Config) *executor.Executor {
	var capability chain.Capability = chain.Unavailable{}
	if cfg.Chain.RpcUrl != "" {
		evm, err := chain.NewEVM(chain.EVMConfig{
			RPCURL:        cfg.Chain.RpcUrl,
			ChainID:       cfg.Chain.ChainId,
			PrivateKey:    cfg.Chain.PrivateKey,
			Router:        cfg.Chain.Router,
			WrappedNative: cfg.Chain.WrappedNative,
			PoolFee:       cfg.Chain.PoolFee,
		})
		if err != nil {
			log.Warn().Err(err).Msg("chain client unavailable, running in simulation mode")
		} else {
			capability = evm
		}
	}

	var priceOracle oracle.PriceOracle
	if cfg.Oracle.Endpoint != "" {
		priceOracle = oracle.NewHTTP(cfg.Oracle.Endpoint, nil, cfg.RetryPolicy(), cfg.Retry.MaxAttempts)
	} else if len(cfg.Oracle.Prices) > 0 {
		s, err := oracle.NewStatic(cfg.Oracle.Prices)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid oracle prices in config")
		}
		priceOracle = s
	}

	var sink audit.Sink
	switch cfg.Audit.Backend {
	case "none":
		sink = audit.Nop{}
	case "redis":
		client, err := store.NewRedisClient(store.RedisOptions{
			Host:     cfg.Redis.Ip,
			Port:     cfg.Redis.Port,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Passwd,
			DB:       cfg.Redis.Db,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis audit backend unavailable")
		}
		sink = audit.NewRedisSink(client, cfg.Audit.RedisKey)
	default:
		fs, err := audit.NewFileSink(cfg.Audit.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("file audit backend unavailable")
		}
		sink = fs
	}

	capUSD := decimal.Zero
	if cfg.Executor.DailyVolumeCapUsd != "" {
		v, err := decimal.NewFromString(cfg.Executor.DailyVolumeCapUsd)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid daily_volume_cap_usd")
		}
		capUSD = v
	}

	return executor.New(capability, priceOracle, sink, executor.Config{
		MaxSlippageBps:    cfg.Executor.MaxSlippageBps,
		MaxGasPriceGwei:   cfg.Executor.MaxGasPriceGwei,
		DailyVolumeCapUSD: capUSD,
		DefaultGasLimit:   cfg.Executor.DefaultGasLimit,
		DryRun:            cfg.Env.DryRun,
		RetryPolicy:       cfg.RetryPolicy(),
		RetryAttempts:     cfg.Retry.MaxAttempts,
	})
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("marshal output")
		return
	}
	os.Stdout.Write(append(data, '\n'))
}
