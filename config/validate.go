package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures fields are within range. Credentials are checked separately by RequireCredentials.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	g := cfg.Gateway
	if g.RecvWindowMs < 0 || g.RecvWindowMs > 60000 {
		return ErrInvalid("gateway.recvWindowMs must be within [0, 60000]")
	}
	if g.RateLimit < 0 || g.RateBurst < 0 {
		return ErrInvalid("gateway.rateLimit/rateBurst must be >= 0")
	}
	if g.TimeoutMs < 0 {
		return ErrInvalid("gateway.timeoutMs must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return ErrInvalid(fmt.Sprintf("log.level %q is invalid", cfg.Log.Level))
	}
	if cfg.Alert.ThrottleSeconds < 0 {
		return ErrInvalid("alert.throttleSeconds must be >= 0")
	}
	s := cfg.Strategy
	if s.OCO.PollIntervalMs <= 0 || s.Grid.PollIntervalMs <= 0 {
		return ErrInvalid("strategy.oco/grid pollIntervalMs must be > 0")
	}
	if s.OCO.MaxMonitorMinutes < 0 {
		return ErrInvalid("strategy.oco.maxMonitorMinutes must be >= 0")
	}
	if s.Grid.MaxMonitorMinutes < 0 {
		return ErrInvalid("strategy.grid.maxMonitorMinutes must be >= 0")
	}
	if s.TWAP.MinIntervalMs < 0 {
		return ErrInvalid("strategy.twap.minIntervalMs must be >= 0")
	}
	if s.Limit.MaxDeviationPct <= 0 {
		return ErrInvalid("strategy.limit.maxDeviationPct must be > 0")
	}
	for sym, sc := range cfg.Symbols {
		if sc.TickSize <= 0 {
			return fmt.Errorf("symbol %s tickSize must be > 0", sym)
		}
		if sc.StepSize <= 0 {
			return fmt.Errorf("symbol %s stepSize must be > 0", sym)
		}
		if sc.MinQty < 0 || sc.MaxQty < 0 {
			return fmt.Errorf("symbol %s qty bounds must be >= 0", sym)
		}
		if sc.MaxQty > 0 && sc.MinQty > sc.MaxQty {
			return fmt.Errorf("symbol %s minQty must be <= maxQty", sym)
		}
		if sc.MinNotional < 0 {
			return fmt.Errorf("symbol %s minNotional must be >= 0", sym)
		}
	}
	return nil
}

// RequireCredentials 实盘模式必须提供 API key/secret。
func RequireCredentials(cfg AppConfig) error {
	if cfg.Gateway.APIKey == "" || cfg.Gateway.APISecret == "" {
		return ErrInvalid("gateway.apiKey/apiSecret is required (or BINANCE_API_KEY/BINANCE_API_SECRET)")
	}
	return nil
}
