package strategy

import (
	"context"

	"futures-algo-go/infrastructure/logger"
	"futures-algo-go/order"
	"futures-algo-go/poll"
)

// Exchange 交易所网关：下单、撤单、查单、取价。失败一律以 error 返回。
type Exchange interface {
	PlaceOrder(ctx context.Context, req order.Request) (order.Order, error)
	CancelOrder(ctx context.Context, symbol, orderID string) (order.Order, error)
	GetOrder(ctx context.Context, symbol, orderID string) (order.Order, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// Deps 控制器的可注入依赖，零值可用。
type Deps struct {
	Logger      *logger.Logger
	Clock       poll.Clock
	Events      EventSink
	Constraints map[string]order.SymbolConstraints // nil 时使用 order.DefaultConstraints
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Clock == nil {
		d.Clock = poll.RealClock
	}
	if d.Constraints == nil {
		d.Constraints = order.DefaultConstraints
	}
	return d
}

func (d Deps) emit(ev Event) {
	if d.Events == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = d.Clock.Now()
	}
	d.Events(ev)
}

func (d Deps) constraintsFor(symbol string) (order.SymbolConstraints, bool) {
	c, ok := d.Constraints[symbol]
	return c, ok
}

// checkQuantity 已知交易对精度时做预检查。
func (d Deps) checkQuantity(symbol string, qty float64) error {
	if c, ok := d.constraintsFor(symbol); ok {
		return c.Validate(0, qty)
	}
	return nil
}
