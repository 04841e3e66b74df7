package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncrementFunctions(t *testing.T) {
	OrdersPlaced.Reset()
	Fills.Reset()
	TWAPChunks.Reset()

	IncrementOrdersPlaced("oco", "STOP_MARKET")
	IncrementOrdersPlaced("oco", "STOP_MARKET")
	IncrementFills("oco", "take_profit")
	IncrementTWAPChunk("FAILED")

	if got := testutil.ToFloat64(OrdersPlaced.WithLabelValues("oco", "STOP_MARKET")); got != 2 {
		t.Errorf("Expected OrdersPlaced[oco,STOP_MARKET] to be 2, got %f", got)
	}
	if got := testutil.ToFloat64(Fills.WithLabelValues("oco", "take_profit")); got != 1 {
		t.Errorf("Expected Fills[oco,take_profit] to be 1, got %f", got)
	}
	if got := testutil.ToFloat64(TWAPChunks.WithLabelValues("FAILED")); got != 1 {
		t.Errorf("Expected TWAPChunks[FAILED] to be 1, got %f", got)
	}
}

func TestGridGauges(t *testing.T) {
	SetGridOpenLevels("BTCUSDT", 5)
	SetGridOpenLevels("BTCUSDT", 4)
	if got := testutil.ToFloat64(GridOpenLevels.WithLabelValues("BTCUSDT")); got != 4 {
		t.Errorf("Expected GridOpenLevels to be 4, got %f", got)
	}
}

func TestObserveGatewayCall(t *testing.T) {
	GatewayErrors.Reset()
	ObserveGatewayCall("place", time.Now(), nil)
	ObserveGatewayCall("place", time.Now(), errors.New("boom"))
	if got := testutil.ToFloat64(GatewayErrors.WithLabelValues("place")); got != 1 {
		t.Errorf("Expected GatewayErrors[place] to be 1, got %f", got)
	}
}

func TestStartMetricsServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := StartMetricsServer(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	IncrementStrategyRuns("grid", "manual_stop")

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "algo_strategy_runs_total") {
		t.Fatalf("metrics output missing strategy runs")
	}
}
