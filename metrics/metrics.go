// Package metrics provides Prometheus metrics for the strategy engine
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "algo"

var (
	// OrdersPlaced 下单成功次数，按策略与订单类型。
	OrdersPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders accepted by the exchange.",
	}, []string{"strategy", "type"})

	// OrdersFailed 下单失败次数。
	OrdersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_failed_total",
		Help:      "Order placements rejected or failed.",
	}, []string{"strategy", "type"})

	// OrdersCanceled 撤单次数。
	OrdersCanceled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_canceled_total",
		Help:      "Orders canceled by the engine.",
	}, []string{"strategy"})

	// Fills 监控到的成交，leg 为 take_profit/stop_loss/buy/sell/chunk。
	Fills = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fills_total",
		Help:      "Fills observed while monitoring.",
	}, []string{"strategy", "leg"})

	// GridOpenLevels 当前网格挂单数。
	GridOpenLevels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "grid",
		Name:      "open_levels",
		Help:      "Grid levels currently holding a resting order.",
	}, []string{"symbol"})

	// GridLevelsRetired 越界而未补单的层。
	GridLevelsRetired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "grid",
		Name:      "levels_retired_total",
		Help:      "Grid levels dropped because the replacement fell outside the range.",
	}, []string{"symbol"})

	// TWAPChunks TWAP 分片结果。
	TWAPChunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "twap",
		Name:      "chunks_total",
		Help:      "TWAP chunks by outcome.",
	}, []string{"outcome"})

	// StrategyRuns 策略运行结果。
	StrategyRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_runs_total",
		Help:      "Strategy invocations by outcome.",
	}, []string{"strategy", "outcome"})

	// GatewayErrors 网关调用失败。
	GatewayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "errors_total",
		Help:      "Exchange gateway failures by operation.",
	}, []string{"op"})

	// GatewayLatency REST 请求耗时。
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_seconds",
		Help:      "Exchange REST request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func IncrementOrdersPlaced(strategy, orderType string) {
	OrdersPlaced.WithLabelValues(strategy, orderType).Inc()
}

func IncrementOrdersFailed(strategy, orderType string) {
	OrdersFailed.WithLabelValues(strategy, orderType).Inc()
}

func IncrementOrdersCanceled(strategy string) {
	OrdersCanceled.WithLabelValues(strategy).Inc()
}

func IncrementFills(strategy, leg string) {
	Fills.WithLabelValues(strategy, leg).Inc()
}

func SetGridOpenLevels(symbol string, n int) {
	GridOpenLevels.WithLabelValues(symbol).Set(float64(n))
}

func IncrementGridLevelsRetired(symbol string) {
	GridLevelsRetired.WithLabelValues(symbol).Inc()
}

func IncrementTWAPChunk(outcome string) {
	TWAPChunks.WithLabelValues(outcome).Inc()
}

func IncrementStrategyRuns(strategy, outcome string) {
	StrategyRuns.WithLabelValues(strategy, outcome).Inc()
}

// ObserveGatewayCall 记录一次网关调用的耗时与结果。
func ObserveGatewayCall(op string, start time.Time, err error) {
	GatewayLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		GatewayErrors.WithLabelValues(op).Inc()
	}
}

// StartMetricsServer 启动Prometheus指标服务器，返回实际监听地址；ctx 结束时关闭。
func StartMetricsServer(ctx context.Context, addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = srv.Serve(ln) }()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return ln.Addr().String(), nil
}
