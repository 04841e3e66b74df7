package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Env)
	assert.True(t, cfg.Gateway.Testnet)
	assert.Contains(t, cfg.Symbols, "BTCUSDT")
	require.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
env: prod
gateway:
  apiKey: foo
  apiSecret: bar
  testnet: false
  recvWindowMs: 3000
log:
  level: debug
  format: json
metrics:
  addr: ":9102"
strategy:
  oco:
    pollIntervalMs: 2000
  grid:
    maxMonitorMinutes: 30
symbols:
  ETHUSDT:
    tickSize: 0.1
    stepSize: 0.01
    minQty: 0.01
  PEPEUSDT:
    tickSize: 0.0000001
    stepSize: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Env)
	assert.False(t, cfg.Gateway.Testnet)
	assert.Equal(t, int64(3000), cfg.Gateway.RecvWindowMs)
	assert.Equal(t, 20, cfg.Gateway.RateBurst, "unset fields keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9102", cfg.Metrics.Addr)

	assert.Equal(t, 0.1, cfg.Symbols["ETHUSDT"].TickSize, "file overrides default symbol")
	assert.Contains(t, cfg.Symbols, "BTCUSDT", "defaults stay available")
	assert.Contains(t, cfg.Symbols, "PEPEUSDT")

	oco := cfg.Strategy.OCOConfig()
	assert.Equal(t, 2*time.Second, oco.PollInterval)
	assert.Equal(t, 24*time.Hour, oco.MaxMonitor)
	assert.Equal(t, 30*time.Minute, cfg.Strategy.GridConfig().MaxMonitor)
	assert.Equal(t, time.Second, cfg.Strategy.TWAPConfig().MinInterval)
	assert.Equal(t, 50.0, cfg.Strategy.LimitConfig().MaxDeviationPct)

	opts := cfg.ClientOptions()
	assert.Equal(t, "foo", opts.APIKey)
	assert.Equal(t, 10*time.Second, opts.Timeout)
	assert.False(t, opts.Testnet)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
env: prod
gateway:
  apiKey: foo
  apiSecret: bar
`)
	t.Setenv("BINANCE_API_KEY", "envkey")
	t.Setenv("BINANCE_API_SECRET", "envsecret")
	t.Setenv("USE_TESTNET", "false")

	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "envkey", cfg.Gateway.APIKey)
	assert.Equal(t, "envsecret", cfg.Gateway.APISecret)
	assert.False(t, cfg.Gateway.Testnet)

	t.Setenv("USE_TESTNET", "maybe")
	_, err = LoadWithEnvOverrides(path)
	var invalid ErrInvalid
	assert.True(t, errors.As(err, &invalid))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeTempConfig(t, "env: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"empty env", func(c *AppConfig) { c.Env = "" }},
		{"recv window", func(c *AppConfig) { c.Gateway.RecvWindowMs = 70000 }},
		{"negative rate", func(c *AppConfig) { c.Gateway.RateLimit = -1 }},
		{"log level", func(c *AppConfig) { c.Log.Level = "loud" }},
		{"poll interval", func(c *AppConfig) { c.Strategy.Grid.PollIntervalMs = 0 }},
		{"deviation", func(c *AppConfig) { c.Strategy.Limit.MaxDeviationPct = 0 }},
		{"tick", func(c *AppConfig) { s := c.Symbols["ETHUSDT"]; s.TickSize = 0; c.Symbols["ETHUSDT"] = s }},
		{"qty bounds", func(c *AppConfig) { s := c.Symbols["BTCUSDT"]; s.MinQty, s.MaxQty = 2, 1; c.Symbols["BTCUSDT"] = s }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := Default()
	assert.Error(t, RequireCredentials(cfg))
	cfg.Gateway.APIKey, cfg.Gateway.APISecret = "k", "s"
	assert.NoError(t, RequireCredentials(cfg))
}
