package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"futures-algo-go/config"
	"futures-algo-go/gateway"
	"futures-algo-go/infrastructure/alert"
	"futures-algo-go/infrastructure/logger"
	"futures-algo-go/metrics"
	"futures-algo-go/strategy"
)

type globalFlags struct {
	configPath  string
	paper       bool
	paperPrices []string
	wsPrice     bool
	metricsAddr string
	debug       bool
}

// app 命令共享的运行时依赖，在 PersistentPreRunE 中初始化。
type app struct {
	flags  globalFlags
	cfg    config.AppConfig
	log    *logger.Logger
	alerts *alert.Manager
	// alertOut 告警控制台输出，默认 stderr
	alertOut io.Writer

	streamOnce sync.Once
	stream     *gateway.MarkPriceStream
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.LoadWithEnvOverrides(a.flags.configPath)
	if err != nil {
		return err
	}
	if a.flags.metricsAddr != "" {
		cfg.Metrics.Addr = a.flags.metricsAddr
	}
	if a.flags.debug {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	a.log = log

	a.alerts = alert.NewManager([]alert.Channel{
		alert.NewLogChannel("log", log),
		alert.NewConsoleChannel("console", a.alertOut),
	}, time.Duration(cfg.Alert.ThrottleSeconds)*time.Second)

	if cfg.Metrics.Addr != "" {
		addr, err := metrics.StartMetricsServer(ctx, cfg.Metrics.Addr)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		log.Info("metrics server listening", zap.String("addr", addr))
	}
	return nil
}

// close 记录命令失败并刷新日志。
func (a *app) close(err error) {
	if a.log == nil {
		return
	}
	if err != nil {
		a.log.LogError(err, map[string]interface{}{"env": a.cfg.Env})
	}
	_ = a.log.Close()
}

// deps 控制器依赖：事件写日志，警告/错误事件转发告警。
func (a *app) deps() strategy.Deps {
	logEvent := func(ev strategy.Event) {
		fields := map[string]interface{}{"symbol": ev.Symbol}
		if ev.OrderID != "" {
			fields["order_id"] = ev.OrderID
		}
		if ev.Side != "" {
			fields["side"] = string(ev.Side)
		}
		if ev.Price != 0 {
			fields["price"] = ev.Price
		}
		if ev.Quantity != 0 {
			fields["quantity"] = ev.Quantity
		}
		if ev.Message != "" {
			fields["message"] = ev.Message
		}
		a.log.LogStrategy(ev.Strategy, string(ev.Kind), fields)
	}
	onErr := func(err error) { a.log.Warn("alert delivery failed", zap.Error(err)) }
	return strategy.Deps{
		Logger:      a.log,
		Events:      a.alerts.Sink(logEvent, onErr),
		Constraints: a.cfg.Symbols,
	}
}

// exchange 按全局参数构建网关。--paper 使用本地撮合，价格来自 --paper-price、WS 或公开 REST。
func (a *app) exchange(ctx context.Context, symbols ...string) (strategy.Exchange, error) {
	opts := a.cfg.ClientOptions()
	rest, stream := gateway.BuildBinanceClients(opts, a.log)
	if a.flags.wsPrice {
		a.startStream(ctx, stream, symbols)
	}

	if a.flags.paper {
		var prices gateway.PriceSource = rest
		switch {
		case len(a.flags.paperPrices) > 0:
			static, err := parsePaperPrices(a.flags.paperPrices)
			if err != nil {
				return nil, err
			}
			prices = static
		case a.flags.wsPrice:
			prices = gateway.NewStreamPricedExchange(rest, a.stream, a.log)
		}
		a.log.Info("paper trading mode", zap.Strings("symbols", symbols))
		return gateway.NewPaperExchange(prices), nil
	}

	if err := config.RequireCredentials(a.cfg); err != nil {
		return nil, err
	}
	a.log.Info("live gateway",
		zap.String("rest", rest.BaseURL),
		zap.Bool("testnet", opts.Testnet),
		zap.Bool("ws_price", a.flags.wsPrice))
	if a.flags.wsPrice {
		return gateway.NewStreamPricedExchange(rest, a.stream, a.log), nil
	}
	return rest, nil
}

func (a *app) startStream(ctx context.Context, stream *gateway.MarkPriceStream, symbols []string) {
	a.streamOnce.Do(func() {
		a.stream = stream
		go func() {
			if err := stream.Run(ctx, symbols...); err != nil {
				a.log.Error("mark price stream stopped", zap.Error(err))
			}
		}()
	})
}

// watchConfig 长时间运行的命令监听配置文件，变更后应用新的日志级别。
func (a *app) watchConfig(ctx context.Context) {
	if a.flags.configPath == "" {
		return
	}
	w := config.Watcher{
		Path:     a.flags.configPath,
		Debounce: 500 * time.Millisecond,
		OnError:  func(err error) { a.log.Warn("config reload failed", zap.Error(err)) },
	}
	go func() {
		_ = w.Start(ctx, func(cfg config.AppConfig) {
			if a.flags.debug {
				return
			}
			if err := a.log.SetLevel(cfg.Log.Level); err != nil {
				a.log.Warn("apply log level failed", zap.Error(err))
				return
			}
			a.log.Info("config reloaded", zap.String("log_level", cfg.Log.Level))
		})
	}()
}

// parsePaperPrices 解析 SYMBOL=PRICE 形式的模拟价格。
func parsePaperPrices(values []string) (*gateway.StaticPrice, error) {
	prices := make(map[string]float64, len(values))
	for _, v := range values {
		sym, raw, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --paper-price %q, want SYMBOL=PRICE", v)
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || px <= 0 {
			return nil, fmt.Errorf("invalid --paper-price %q: price must be a positive number", v)
		}
		prices[strings.ToUpper(strings.TrimSpace(sym))] = px
	}
	return gateway.NewStaticPrice(prices), nil
}
