package order

// Request 下单请求。只有本包定义的请求类型实现该接口。
type Request interface {
	Type() Type
	Params() Base
	Validate() error
	sealed()
}

// Base 各类请求共有的字段。
type Base struct {
	Symbol     string
	Side       Side
	Quantity   float64
	ReduceOnly bool
	ClientID   string
}

func (b Base) validate() error {
	if err := ValidateSymbol(b.Symbol); err != nil {
		return err
	}
	if err := ValidateSide(b.Side); err != nil {
		return err
	}
	return ValidateQuantity(b.Quantity)
}

// MarketRequest 市价单。
type MarketRequest struct {
	Base
}

func (MarketRequest) Type() Type { return TypeMarket }
func (r MarketRequest) Params() Base { return r.Base }
func (r MarketRequest) Validate() error { return r.Base.validate() }
func (MarketRequest) sealed() {}

// LimitRequest 限价单。
type LimitRequest struct {
	Base
	Price       float64
	TimeInForce TimeInForce
}

func (LimitRequest) Type() Type { return TypeLimit }
func (r LimitRequest) Params() Base { return r.Base }
func (LimitRequest) sealed() {}

func (r LimitRequest) Validate() error {
	if err := r.Base.validate(); err != nil {
		return err
	}
	if err := ValidatePrice(r.Price); err != nil {
		return err
	}
	_, err := ParseTimeInForce(string(r.TimeInForce))
	return err
}

// StopLimitRequest 止损限价单（交易所类型 STOP）。
type StopLimitRequest struct {
	Base
	Price       float64
	StopPrice   float64
	TimeInForce TimeInForce
}

func (StopLimitRequest) Type() Type { return TypeStop }
func (r StopLimitRequest) Params() Base { return r.Base }
func (StopLimitRequest) sealed() {}

// Validate 卖出要求 limit <= stop，买入要求 limit >= stop。
func (r StopLimitRequest) Validate() error {
	if err := r.Base.validate(); err != nil {
		return err
	}
	if err := ValidatePrice(r.Price); err != nil {
		return err
	}
	if err := ValidateNamedPrice("stopPrice", r.StopPrice); err != nil {
		return err
	}
	if _, err := ParseTimeInForce(string(r.TimeInForce)); err != nil {
		return err
	}
	if r.Side == SideSell && r.Price > r.StopPrice {
		return Invalid("price", r.Price, "SELL stop-limit requires limit price <= stop price %v", r.StopPrice)
	}
	if r.Side == SideBuy && r.Price < r.StopPrice {
		return Invalid("price", r.Price, "BUY stop-limit requires limit price >= stop price %v", r.StopPrice)
	}
	return nil
}

// StopMarketRequest 止损市价单，OCO 的止损腿。
type StopMarketRequest struct {
	Base
	StopPrice float64
}

func (StopMarketRequest) Type() Type { return TypeStopMarket }
func (r StopMarketRequest) Params() Base { return r.Base }
func (StopMarketRequest) sealed() {}

func (r StopMarketRequest) Validate() error {
	if err := r.Base.validate(); err != nil {
		return err
	}
	return ValidateNamedPrice("stopPrice", r.StopPrice)
}

// TakeProfitMarketRequest 止盈市价单，OCO 的止盈腿。
type TakeProfitMarketRequest struct {
	Base
	StopPrice float64
}

func (TakeProfitMarketRequest) Type() Type { return TypeTakeProfitMarket }
func (r TakeProfitMarketRequest) Params() Base { return r.Base }
func (TakeProfitMarketRequest) sealed() {}

func (r TakeProfitMarketRequest) Validate() error {
	if err := r.Base.validate(); err != nil {
		return err
	}
	return ValidateNamedPrice("stopPrice", r.StopPrice)
}
