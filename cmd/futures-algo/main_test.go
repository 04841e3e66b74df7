package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"futures-algo-go/gateway"
	"futures-algo-go/order"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	a.alertOut = io.Discard
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.close(err)
	return out.String(), err
}

func quietConfig(t *testing.T) string {
	t.Helper()
	return writeConfig(t, "log:\n  level: error\n  outputs: []\n")
}

func TestPaperMarketOrder(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000",
		"market", "btcusdt", "buy", "0.01")
	require.NoError(t, err)
	assert.Contains(t, out, "BTCUSDT BUY MARKET")
	assert.Contains(t, out, "status=FILLED")
	assert.Contains(t, out, "avg=30000")
}

func TestPaperLimitOrderRests(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000",
		"limit", "BTCUSDT", "BUY", "0.01", "29000")
	require.NoError(t, err)
	assert.Contains(t, out, "status=NEW")
}

func TestPaperOCOPlacedWithoutMonitor(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000",
		"oco", "BTCUSDT", "SELL", "0.01", "31000", "29000")
	require.NoError(t, err)
	assert.Contains(t, out, "outcome=placed")
	assert.Contains(t, out, "state=PLACED")
}

func TestPaperGridPlacesLadder(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30050",
		"grid", "BTCUSDT", "29000", "31000", "5", "0.01")
	require.NoError(t, err)
	assert.Contains(t, out, "grid placed 6 orders")
	assert.Contains(t, out, "outcome=placed")
	assert.Contains(t, out, "LEVEL")
}

func TestPaperTWAPCompletes(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "ETHUSDT=2000",
		"twap", "ETHUSDT", "SELL", "1", "20ms", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "outcome=completed")
	assert.Contains(t, out, "executed=1/1")
}

func TestPaperPrice(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "SOLUSDT=150.5", "price", "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT 150.5\n", out)
}

func TestCancelUnknownOrderFails(t *testing.T) {
	_, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000", "cancel", "BTCUSDT", "12345")
	require.Error(t, err)
	assert.True(t, gateway.IsUnknownOrder(err))
}

func TestValidationErrors(t *testing.T) {
	cases := [][]string{
		{"market", "BTCUSDT", "HOLD", "1"},
		{"market", "BTCBUSD", "BUY", "1"},
		{"limit", "BTCUSDT", "BUY", "abc", "100"},
		{"oco", "BTCUSDT", "SELL", "0.01", "29000", "31000"},
		{"grid", "BTCUSDT", "31000", "29000", "5", "0.01"},
		{"twap", "BTCUSDT", "BUY", "1", "10m", "0"},
	}
	for _, args := range cases {
		full := append([]string{"--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000"}, args...)
		_, err := runCLI(t, full...)
		if assert.Error(t, err, args) {
			assert.True(t, errors.Is(err, order.ErrValidation), "%v: %v", args, err)
		}
	}
}

func TestLiveModeRequiresCredentials(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")
	_, err := runCLI(t, "--config", quietConfig(t), "market", "BTCUSDT", "BUY", "0.01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apiKey")
}

func TestParsePaperPrices(t *testing.T) {
	p, err := parsePaperPrices([]string{"btcusdt=100", "ETHUSDT = 2"})
	require.NoError(t, err)
	px, err := p.CurrentPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 100.0, px)

	_, err = parsePaperPrices([]string{"BTCUSDT"})
	assert.Error(t, err)
	_, err = parsePaperPrices([]string{"BTCUSDT=-1"})
	assert.Error(t, err)
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("duration", "90s")
	require.NoError(t, err)
	assert.Equal(t, "1m30s", d.String())
	d, err = parseDuration("duration", "2.5")
	require.NoError(t, err)
	assert.Equal(t, "2m30s", d.String())
	_, err = parseDuration("duration", "soon")
	assert.True(t, errors.Is(err, order.ErrValidation))
}

func TestPaperCancelAll(t *testing.T) {
	out, err := runCLI(t, "--config", quietConfig(t), "--paper", "--paper-price", "BTCUSDT=30000", "cancel-all", "BTCUSDT")
	require.NoError(t, err)
	assert.Contains(t, out, "all open BTCUSDT orders cancelled")
}

func TestSymbolsPrintsConfigSnippet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"symbols":[{"symbol":"ETHUSDT","status":"TRADING","filters":[
			{"filterType":"PRICE_FILTER","tickSize":"0.01","minPrice":"1","maxPrice":"100000"},
			{"filterType":"LOT_SIZE","stepSize":"0.001","minQty":"0.001","maxQty":"10000"},
			{"filterType":"MIN_NOTIONAL","notional":"20"}]}]}`)
	}))
	defer ts.Close()

	cfg := writeConfig(t, "log:\n  level: error\n  outputs: []\ngateway:\n  baseURL: "+ts.URL+"\n")
	out, err := runCLI(t, "--config", cfg, "symbols", "ETHUSDT")
	require.NoError(t, err)

	var parsed struct {
		Symbols map[string]order.SymbolConstraints `yaml:"symbols"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, order.SymbolConstraints{TickSize: 0.01, StepSize: 0.001, MinQty: 0.001, MaxQty: 10000, MinNotional: 20}, parsed.Symbols["ETHUSDT"])
}
