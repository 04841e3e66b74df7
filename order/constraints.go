package order

import (
	"math"

	"github.com/shopspring/decimal"
)

// SymbolConstraints 描述交易对的步长与名义限制。
type SymbolConstraints struct {
	TickSize    float64 `yaml:"tickSize"`
	StepSize    float64 `yaml:"stepSize"`
	MinQty      float64 `yaml:"minQty"`
	MaxQty      float64 `yaml:"maxQty"`
	MinNotional float64 `yaml:"minNotional"`
}

// DefaultConstraints 常用合约的默认精度。
var DefaultConstraints = map[string]SymbolConstraints{
	"BTCUSDT":  {TickSize: 0.01, StepSize: 0.001, MinQty: 0.001},
	"ETHUSDT":  {TickSize: 0.01, StepSize: 0.001, MinQty: 0.001},
	"BNBUSDT":  {TickSize: 0.01, StepSize: 0.01, MinQty: 0.01},
	"ADAUSDT":  {TickSize: 0.00001, StepSize: 1, MinQty: 1},
	"DOGEUSDT": {TickSize: 0.00001, StepSize: 1, MinQty: 1},
	"SOLUSDT":  {TickSize: 0.01, StepSize: 0.1, MinQty: 0.1},
	"XRPUSDT":  {TickSize: 0.0001, StepSize: 0.1, MinQty: 0.1},
}

// Validate 检查订单价格/数量是否符合精度与最小名义。price<=0 时跳过价格相关检查（市价单）。
func (c SymbolConstraints) Validate(price, qty float64) error {
	if price > 0 && c.TickSize > 0 && !isMultiple(price, c.TickSize) {
		return Invalid("price", price, "not aligned to tickSize %v", c.TickSize)
	}
	if c.StepSize > 0 && !isMultiple(qty, c.StepSize) {
		return Invalid("quantity", qty, "not aligned to stepSize %v", c.StepSize)
	}
	if c.MinQty > 0 && qty < c.MinQty {
		return Invalid("quantity", qty, "below minQty %v", c.MinQty)
	}
	if c.MaxQty > 0 && qty > c.MaxQty {
		return Invalid("quantity", qty, "above maxQty %v", c.MaxQty)
	}
	if price > 0 && c.MinNotional > 0 && price*qty < c.MinNotional {
		return Invalid("notional", price*qty, "below minNotional %v", c.MinNotional)
	}
	return nil
}

// RoundPrice 四舍五入到 tick。
func (c SymbolConstraints) RoundPrice(price float64) float64 {
	return RoundToStep(price, c.TickSize)
}

// FloorQty 向下截断到 step。
func (c SymbolConstraints) FloorQty(qty float64) float64 {
	if c.StepSize <= 0 {
		return qty
	}
	step := decimal.NewFromFloat(c.StepSize)
	f, _ := decimal.NewFromFloat(qty).Div(step).Floor().Mul(step).Float64()
	return f
}

// PriceDecimals 价格小数位；未配置 tick 时返回 -1。
func (c SymbolConstraints) PriceDecimals() int32 {
	return stepDecimals(c.TickSize)
}

// QtyDecimals 数量小数位；未配置 step 时返回 -1。
func (c SymbolConstraints) QtyDecimals() int32 {
	return stepDecimals(c.StepSize)
}

// RoundToStep 用十进制运算把 v 四舍五入到 step 的整数倍，step<=0 时原样返回。
func RoundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	s := decimal.NewFromFloat(step)
	f, _ := decimal.NewFromFloat(v).Div(s).Round(0).Mul(s).Float64()
	return f
}

// FormatDecimal 按给定小数位格式化；decimals<0 时输出最短表示。
func FormatDecimal(v float64, decimals int32) string {
	d := decimal.NewFromFloat(v)
	if decimals < 0 {
		return d.String()
	}
	return d.StringFixed(decimals)
}

func stepDecimals(step float64) int32 {
	if step <= 0 {
		return -1
	}
	exp := decimal.NewFromFloat(step).Exponent()
	if exp >= 0 {
		return 0
	}
	return -exp
}

func isMultiple(value, step float64) bool {
	if step <= 0 {
		return true
	}
	ratio := value / step
	return math.Abs(ratio-math.Round(ratio)) <= 1e-8
}
