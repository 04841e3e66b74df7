package config

import (
	"time"

	"futures-algo-go/gateway"
	"futures-algo-go/strategy"
)

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// ClientOptions 转换为网关构建参数。
func (c AppConfig) ClientOptions() gateway.ClientOptions {
	g := c.Gateway
	return gateway.ClientOptions{
		APIKey:       g.APIKey,
		APISecret:    g.APISecret,
		RESTURL:      g.BaseURL,
		WSURL:        g.WSURL,
		Testnet:      g.Testnet,
		RecvWindowMs: g.RecvWindowMs,
		RateLimit:    g.RateLimit,
		RateBurst:    g.RateBurst,
		Timeout:      ms(g.TimeoutMs),
		Constraints:  c.Symbols,
	}
}

func (s StrategyConfig) OCOConfig() strategy.OCOConfig {
	return strategy.OCOConfig{
		PollInterval: ms(s.OCO.PollIntervalMs),
		MaxMonitor:   time.Duration(s.OCO.MaxMonitorMinutes) * time.Minute,
	}
}

func (s StrategyConfig) GridConfig() strategy.GridConfig {
	return strategy.GridConfig{
		PollInterval: ms(s.Grid.PollIntervalMs),
		MaxMonitor:   time.Duration(s.Grid.MaxMonitorMinutes) * time.Minute,
	}
}

func (s StrategyConfig) TWAPConfig() strategy.TWAPConfig {
	return strategy.TWAPConfig{MinInterval: ms(s.TWAP.MinIntervalMs)}
}

func (s StrategyConfig) LimitConfig() strategy.LimitConfig {
	return strategy.LimitConfig{MaxDeviationPct: s.Limit.MaxDeviationPct}
}
