package strategy

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"futures-algo-go/metrics"
	"futures-algo-go/order"
)

const strategySingle = "single"

// LimitConfig 限价偏离现价超过 MaxDeviationPct（百分比）时告警。
type LimitConfig struct {
	MaxDeviationPct float64
}

func DefaultLimitConfig() LimitConfig {
	return LimitConfig{MaxDeviationPct: 50}
}

// PlaceMarket 校验后下市价单。
func PlaceMarket(ctx context.Context, ex Exchange, symbol string, side order.Side, qty float64, deps Deps) (order.Order, error) {
	deps = deps.withDefaults()
	req := order.MarketRequest{Base: order.Base{Symbol: normalizeSymbol(symbol), Side: side, Quantity: qty}}
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}
	if err := deps.checkQuantity(req.Symbol, qty); err != nil {
		return order.Order{}, err
	}
	return submit(ctx, ex, req, deps)
}

// PlaceLimit 校验后下限价单；能取到现价时检查偏离度。
func PlaceLimit(ctx context.Context, ex Exchange, req order.LimitRequest, cfg LimitConfig, deps Deps) (order.Order, error) {
	deps = deps.withDefaults()
	req.Symbol = normalizeSymbol(req.Symbol)
	if req.TimeInForce == "" {
		req.TimeInForce = order.GTC
	}
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}
	if c, ok := deps.constraintsFor(req.Symbol); ok {
		if err := c.Validate(req.Price, req.Quantity); err != nil {
			return order.Order{}, err
		}
	}
	if cfg.MaxDeviationPct > 0 {
		if cur, err := ex.CurrentPrice(ctx, req.Symbol); err != nil {
			deps.Logger.Debug("limit deviation check skipped", zap.Error(err))
		} else if dev := math.Abs(req.Price-cur) / cur * 100; dev > cfg.MaxDeviationPct {
			msg := fmt.Sprintf("limit price %v deviates %.1f%% from current price %v", req.Price, dev, cur)
			deps.Logger.Warn("limit price far from market", zap.String("detail", msg))
			deps.emit(Event{
				Kind: EventPriceDeviation, Strategy: strategySingle, Symbol: req.Symbol, Side: req.Side,
				Price: req.Price, Quantity: req.Quantity, Message: msg,
			})
		}
	}
	return submit(ctx, ex, req, deps)
}

// PlaceStopLimit 校验后下止损限价单；触发价已被现价越过时告警，由交易所决定是否拒单。
func PlaceStopLimit(ctx context.Context, ex Exchange, req order.StopLimitRequest, deps Deps) (order.Order, error) {
	deps = deps.withDefaults()
	req.Symbol = normalizeSymbol(req.Symbol)
	if req.TimeInForce == "" {
		req.TimeInForce = order.GTC
	}
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}
	if c, ok := deps.constraintsFor(req.Symbol); ok {
		if err := c.Validate(req.Price, req.Quantity); err != nil {
			return order.Order{}, err
		}
	}
	if cur, err := ex.CurrentPrice(ctx, req.Symbol); err != nil {
		deps.Logger.Debug("stop price check skipped", zap.Error(err))
	} else if err := order.ValidateStopPrice(req.StopPrice, cur, req.Side); err != nil {
		deps.Logger.Warn("stop price already crossed", zap.Error(err))
		deps.emit(Event{
			Kind: EventStopTriggersNow, Strategy: strategySingle, Symbol: req.Symbol, Side: req.Side,
			Price: req.StopPrice, Quantity: req.Quantity, Message: err.Error(),
		})
	}
	return submit(ctx, ex, req, deps)
}

func submit(ctx context.Context, ex Exchange, req order.Request, deps Deps) (order.Order, error) {
	b := req.Params()
	o, err := ex.PlaceOrder(ctx, req)
	if err != nil {
		metrics.IncrementOrdersFailed(strategySingle, string(req.Type()))
		deps.Logger.Error("order placement failed",
			zap.String("type", string(req.Type())), zap.String("symbol", b.Symbol), zap.Error(err))
		deps.emit(Event{
			Kind: EventPlacementFailed, Strategy: strategySingle, Symbol: b.Symbol, Side: b.Side,
			Quantity: b.Quantity, Message: err.Error(),
		})
		return order.Order{}, fmt.Errorf("%w: %w", ErrPlacementFailed, err)
	}
	metrics.IncrementOrdersPlaced(strategySingle, string(req.Type()))
	deps.Logger.LogOrder("placed", o.ID, map[string]interface{}{
		"symbol": o.Symbol,
		"side":   string(o.Side),
		"type":   string(o.Type),
		"qty":    o.Quantity,
		"status": string(o.Status),
	})
	deps.emit(Event{
		Kind: EventOrderPlaced, Strategy: strategySingle, Symbol: b.Symbol, Side: b.Side,
		OrderID: o.ID, Price: o.Price, Quantity: o.Quantity,
	})
	return o, nil
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
