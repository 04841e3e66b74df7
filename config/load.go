package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"futures-algo-go/infrastructure/logger"
	"futures-algo-go/order"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string                             `yaml:"env"`
	Gateway  GatewayConfig                      `yaml:"gateway"`
	Log      logger.Config                      `yaml:"log"`
	Metrics  MetricsConfig                      `yaml:"metrics"`
	Alert    AlertConfig                        `yaml:"alert"`
	Strategy StrategyConfig                     `yaml:"strategy"`
	Symbols  map[string]order.SymbolConstraints `yaml:"symbols"`
}

type GatewayConfig struct {
	APIKey       string  `yaml:"apiKey"`
	APISecret    string  `yaml:"apiSecret"`
	BaseURL      string  `yaml:"baseURL"` // 为空时按 testnet 选择
	WSURL        string  `yaml:"wsURL"`
	Testnet      bool    `yaml:"testnet"`
	RecvWindowMs int64   `yaml:"recvWindowMs"`
	RateLimit    float64 `yaml:"rateLimit"` // 每秒请求数，0 表示不限速
	RateBurst    int     `yaml:"rateBurst"`
	TimeoutMs    int     `yaml:"timeoutMs"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 为空时不启动 /metrics
}

type AlertConfig struct {
	ThrottleSeconds int `yaml:"throttleSeconds"`
}

// StrategyConfig 各控制器的轮询/超时参数。
type StrategyConfig struct {
	OCO   OCOSettings   `yaml:"oco"`
	Grid  GridSettings  `yaml:"grid"`
	TWAP  TWAPSettings  `yaml:"twap"`
	Limit LimitSettings `yaml:"limit"`
}

type OCOSettings struct {
	PollIntervalMs    int `yaml:"pollIntervalMs"`
	MaxMonitorMinutes int `yaml:"maxMonitorMinutes"`
}

type GridSettings struct {
	PollIntervalMs    int `yaml:"pollIntervalMs"`
	MaxMonitorMinutes int `yaml:"maxMonitorMinutes"` // 0 表示一直运行到手动停止
}

type TWAPSettings struct {
	MinIntervalMs int `yaml:"minIntervalMs"`
}

type LimitSettings struct {
	MaxDeviationPct float64 `yaml:"maxDeviationPct"`
}

// Default 未提供配置文件时使用的配置：测试网、控制台日志、常用合约精度。
func Default() AppConfig {
	symbols := make(map[string]order.SymbolConstraints, len(order.DefaultConstraints))
	for k, v := range order.DefaultConstraints {
		symbols[k] = v
	}
	return AppConfig{
		Env: "testnet",
		Gateway: GatewayConfig{
			Testnet:      true,
			RecvWindowMs: 5000,
			RateLimit:    10,
			RateBurst:    20,
			TimeoutMs:    10000,
		},
		Log:   logger.DefaultConfig(),
		Alert: AlertConfig{ThrottleSeconds: 60},
		Strategy: StrategyConfig{
			OCO:   OCOSettings{PollIntervalMs: 5000, MaxMonitorMinutes: 24 * 60},
			Grid:  GridSettings{PollIntervalMs: 10000},
			TWAP:  TWAPSettings{MinIntervalMs: 1000},
			Limit: LimitSettings{MaxDeviationPct: 50},
		},
		Symbols: symbols,
	}
}

// Load reads YAML config from path on top of Default and validates it.
// An empty path returns the defaults.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides credentials and network from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		cfg.Gateway.APISecret = v
	}
	if v := os.Getenv("USE_TESTNET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, ErrInvalid(fmt.Sprintf("USE_TESTNET must be a boolean, got %q", v))
		}
		cfg.Gateway.Testnet = b
	}
	return cfg, Validate(cfg)
}
