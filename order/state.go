package order

import (
	"fmt"
	"strings"
	"time"
)

// Status 交易所返回的订单状态。
type Status string

const (
	StatusNew             Status = "NEW"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCanceled        Status = "CANCELED"
	StatusRejected        Status = "REJECTED"
	StatusExpired         Status = "EXPIRED"
)

// IsFinal 终态：成交、撤销、拒绝、过期。
func (s Status) IsFinal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return true
	default:
		return false
	}
}

// IsActive 仍挂在交易所、可能继续成交。
func (s Status) IsActive() bool {
	return s == StatusNew || s == StatusPartiallyFilled
}

// ParseStatus 解析交易所状态字符串；未知状态返回错误。
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusNew, StatusPartiallyFilled, StatusFilled, StatusCanceled, StatusRejected, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Side 买卖方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite 返回反方向。
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Type 订单类型。
type Type string

const (
	TypeMarket           Type = "MARKET"
	TypeLimit            Type = "LIMIT"
	TypeStop             Type = "STOP"
	TypeStopMarket       Type = "STOP_MARKET"
	TypeTakeProfitMarket Type = "TAKE_PROFIT_MARKET"
)

// TimeInForce 有效方式。
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// Order 交易所订单视图。
type Order struct {
	ID          string
	ClientID    string
	Symbol      string
	Side        Side
	Type        Type
	Quantity    float64
	ExecutedQty float64
	Price       float64
	StopPrice   float64
	AvgPrice    float64
	TimeInForce TimeInForce
	ReduceOnly  bool
	Status      Status
	UpdateTime  time.Time
}

// Notional 已成交名义价值。
func (o Order) Notional() float64 {
	return o.ExecutedQty * o.AvgPrice
}
