package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hellodex/swapengine/retry"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Env struct {
		LogLevel string `yaml:"log_level"`
		DryRun   bool   `yaml:"dry_run"`
	} `yaml:"env"`

	Executor struct {
		MaxSlippageBps    int    `yaml:"max_slippage_bps"`
		MaxGasPriceGwei   int64  `yaml:"max_gas_price_gwei"`
		DailyVolumeCapUsd string `yaml:"daily_volume_cap_usd"`
		DefaultGasLimit   uint64 `yaml:"default_gas_limit"`
	} `yaml:"executor"`

	Retry struct {
		MaxAttempts int  `yaml:"max_attempts"`
		BaseDelayMs int  `yaml:"base_delay_ms"`
		MaxDelayMs  int  `yaml:"max_delay_ms"`
		Jitter      bool `yaml:"jitter"`
	} `yaml:"retry"`

	Aggregator struct {
		// Providers lists enabled adapters in priority order.
		Providers         []string `yaml:"providers"`
		ProviderTimeoutMs int      `yaml:"provider_timeout_ms"`
		QuoteCacheTtlMs   int      `yaml:"quote_cache_ttl_ms"`
	} `yaml:"aggregator"`

	Providers struct {
		OneInch struct {
			BaseUrl string `yaml:"base_url"`
			ApiKey  string `yaml:"api_key"`
		} `yaml:"oneinch"`
		OpenOcean struct {
			BaseUrl string `yaml:"base_url"`
		} `yaml:"openocean"`
	} `yaml:"providers"`

	Chain struct {
		RpcUrl        string `yaml:"rpc_url"`
		ChainId       int64  `yaml:"chain_id"`
		PrivateKey    string `yaml:"private_key"`
		Router        string `yaml:"router"`
		WrappedNative string `yaml:"wrapped_native"`
		PoolFee       int64  `yaml:"pool_fee"`
	} `yaml:"chain"`

	Oracle struct {
		Endpoint string            `yaml:"endpoint"`
		Prices   map[string]string `yaml:"prices"`
	} `yaml:"oracle"`

	Audit struct {
		Backend  string `yaml:"backend"` // file | redis | none
		Path     string `yaml:"path"`
		RedisKey string `yaml:"redis_key"`
	} `yaml:"audit"`

	Redis struct {
		Ip       string `yaml:"ip"`
		Port     int    `yaml:"port"`
		Db       int    `yaml:"db"`
		Username string `yaml:"username"`
		Passwd   string `yaml:"passwd"`
	} `yaml:"redis"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(&config)

	return &config, nil
}

// applyEnvOverrides keeps secrets out of the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEX_RPC_URL"); v != "" {
		cfg.Chain.RpcUrl = v
	}
	if v := os.Getenv("DEX_PRIVATE_KEY"); v != "" {
		cfg.Chain.PrivateKey = v
	}
	if v := os.Getenv("ONEINCH_API_KEY"); v != "" {
		cfg.Providers.OneInch.ApiKey = v
	}
	if v := os.Getenv("DRY_RUN_MODE"); v != "" {
		cfg.Env.DryRun = cast.ToBool(v)
	}
}

// RetryPolicy translates the retry section into a backoff policy.
func (c *Config) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.Retry.BaseDelayMs > 0 {
		p.Base = time.Duration(c.Retry.BaseDelayMs) * time.Millisecond
	}
	if c.Retry.MaxDelayMs > 0 {
		p.Max = time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
	}
	p.Jitter = c.Retry.Jitter
	return p
}

func (c *Config) ProviderTimeout() time.Duration {
	if c.Aggregator.ProviderTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Aggregator.ProviderTimeoutMs) * time.Millisecond
}

func (c *Config) QuoteCacheTTL() time.Duration {
	return time.Duration(c.Aggregator.QuoteCacheTtlMs) * time.Millisecond
}

func (c *Config) Validate() error {
	if c.Chain.RpcUrl != "" && c.Chain.Router == "" {
		return fmt.Errorf("chain.router is required when chain.rpc_url is set")
	}
	return nil
}
