package gateway

import (
	"context"

	"go.uber.org/zap"

	"futures-algo-go/infrastructure/logger"
	"futures-algo-go/order"
)

// PriceSource 提供交易对当前价格。
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// OrderGateway 下单/撤单/查单/取价的完整网关。
type OrderGateway interface {
	PriceSource
	PlaceOrder(ctx context.Context, req order.Request) (order.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (order.Order, error)
	GetOrder(ctx context.Context, symbol, orderID string) (order.Order, error)
}

// StreamPricedExchange 优先使用 WS 缓存价格，缓存缺失或过期时回落到网关自身的取价。
type StreamPricedExchange struct {
	OrderGateway
	Stream PriceSource
	Logger *logger.Logger
}

func NewStreamPricedExchange(gw OrderGateway, stream PriceSource, log *logger.Logger) *StreamPricedExchange {
	if log == nil {
		log = logger.Nop()
	}
	return &StreamPricedExchange{OrderGateway: gw, Stream: stream, Logger: log}
}

func (e *StreamPricedExchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if e.Stream != nil {
		px, err := e.Stream.CurrentPrice(ctx, symbol)
		if err == nil {
			return px, nil
		}
		e.Logger.Debug("stream price unavailable, falling back to REST",
			zap.String("symbol", symbol), zap.Error(err))
	}
	return e.OrderGateway.CurrentPrice(ctx, symbol)
}
