package gateway

import (
	"errors"
	"fmt"
)

// ErrGateway 所有网关失败（传输、交易所拒绝、响应无法解析）都包装该错误。
var ErrGateway = errors.New("exchange gateway error")

// APIError 交易所返回的业务错误，例如 {"code":-2019,"msg":"Margin is insufficient."}。
type APIError struct {
	HTTPStatus int
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance api error %d (http %d): %s", e.Code, e.HTTPStatus, e.Message)
}

func (e *APIError) Unwrap() error { return ErrGateway }

// 常见错误码
const (
	CodeUnknownOrder      = -2011
	CodeOrderDoesNotExist = -2013
	CodeInsufficientFunds = -2019
	CodeImmediateTrigger  = -2021
)

// IsUnknownOrder 撤单/查单时订单不存在。
func IsUnknownOrder(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == CodeUnknownOrder || apiErr.Code == CodeOrderDoesNotExist
	}
	return false
}
