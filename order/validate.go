package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// SettlementAsset U 本位合约的结算资产。
const SettlementAsset = "USDT"

// ErrValidation 所有参数校验失败的哨兵错误。
var ErrValidation = errors.New("validation failed")

// ValidationError 描述某个字段的校验失败。
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid 构造 ValidationError。
func Invalid(field string, value any, format string, args ...any) error {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// ValidateSymbol 校验合约代码：大写、USDT 结尾、长度>=5、纯字母。
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return Invalid("symbol", nil, "must not be empty")
	}
	if symbol != strings.ToUpper(symbol) {
		return Invalid("symbol", symbol, "must be uppercase")
	}
	if !strings.HasSuffix(symbol, SettlementAsset) {
		return Invalid("symbol", symbol, "must end with %s", SettlementAsset)
	}
	if len(symbol) < len(SettlementAsset)+1 {
		return Invalid("symbol", symbol, "too short")
	}
	for _, r := range symbol {
		if !unicode.IsLetter(r) || r > unicode.MaxASCII {
			return Invalid("symbol", symbol, "must contain only letters")
		}
	}
	return nil
}

// ParseSide 大小写不敏感地解析方向。
func ParseSide(side string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(side))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", Invalid("side", side, "must be BUY or SELL")
}

// ValidateSide 校验已解析的方向。
func ValidateSide(side Side) error {
	if side != SideBuy && side != SideSell {
		return Invalid("side", side, "must be BUY or SELL")
	}
	return nil
}

// ValidateQuantity 数量必须为有限正数。
func ValidateQuantity(qty float64) error {
	return positiveFinite("quantity", qty)
}

// ValidatePrice 价格必须为有限正数。
func ValidatePrice(price float64) error {
	return positiveFinite("price", price)
}

// ValidateNamedPrice 同 ValidatePrice，错误信息中使用指定字段名。
func ValidateNamedPrice(field string, price float64) error {
	return positiveFinite(field, price)
}

func positiveFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, v, "must be a finite number")
	}
	if v <= 0 {
		return Invalid(field, v, "must be positive")
	}
	return nil
}

// ParseTimeInForce 解析 GTC/IOC/FOK。
func ParseTimeInForce(tif string) (TimeInForce, error) {
	switch TimeInForce(strings.ToUpper(strings.TrimSpace(tif))) {
	case GTC:
		return GTC, nil
	case IOC:
		return IOC, nil
	case FOK:
		return FOK, nil
	}
	return "", Invalid("timeInForce", tif, "must be one of GTC, IOC, FOK")
}

// ValidateStopPrice 止损触发价相对当前价的方向：卖出止损需低于现价，买入止损需高于现价。
func ValidateStopPrice(stop, current float64, side Side) error {
	if err := ValidateNamedPrice("stopPrice", stop); err != nil {
		return err
	}
	switch side {
	case SideSell:
		if stop >= current {
			return Invalid("stopPrice", stop, "SELL stop must be below current price %v", current)
		}
	case SideBuy:
		if stop <= current {
			return Invalid("stopPrice", stop, "BUY stop must be above current price %v", current)
		}
	default:
		return ValidateSide(side)
	}
	return nil
}
