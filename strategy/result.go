package strategy

import (
	"context"
	"errors"
	"fmt"

	"futures-algo-go/order"
)

// Outcome 策略结束方式。
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomePlaced     Outcome = "placed" // 只下单、不监控
	OutcomeTimeout    Outcome = "timeout"
	OutcomeManualStop Outcome = "manual_stop"
	OutcomeFailed     Outcome = "failed"
)

var (
	// ErrPlacementFailed 下单失败（已按需撤掉先前的腿）。
	ErrPlacementFailed = errors.New("order placement failed")
	// ErrPriceUnavailable 无法获取当前价格。
	ErrPriceUnavailable = errors.New("current price unavailable")
	// ErrCancelFailed 撤销另一条腿失败，订单可能仍在交易所挂着。
	ErrCancelFailed = errors.New("sibling cancel failed")
)

// Leg OCO 的一条腿。
type Leg string

const (
	LegTakeProfit Leg = "take_profit"
	LegStopLoss   Leg = "stop_loss"
)

// UnexpectedLegStateError 监控中发现某条腿被撤销、拒绝或过期。
type UnexpectedLegStateError struct {
	Leg     Leg
	OrderID string
	Status  order.Status
}

func (e *UnexpectedLegStateError) Error() string {
	return fmt.Sprintf("%s leg %s unexpectedly %s", e.Leg, e.OrderID, e.Status)
}

// isRequestError 请求本身无效或调用方已取消，区别于交易所侧失败。
func isRequestError(err error) bool {
	return errors.Is(err, order.ErrValidation) || errors.Is(err, context.Canceled)
}
