package order

import "errors"

// ErrUnknownOrder 订单不存在。
var ErrUnknownOrder = errors.New("unknown order")
