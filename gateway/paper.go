package gateway

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"futures-algo-go/order"
	"futures-algo-go/poll"
)

// StaticPrice 可手动设置的价格源，用于模拟盘和测试。
type StaticPrice struct {
	mu     sync.RWMutex
	prices map[string]float64
}

func NewStaticPrice(prices map[string]float64) *StaticPrice {
	s := &StaticPrice{prices: make(map[string]float64, len(prices))}
	for k, v := range prices {
		s.prices[strings.ToUpper(k)] = v
	}
	return s
}

func (s *StaticPrice) Set(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[strings.ToUpper(symbol)] = price
}

func (s *StaticPrice) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	px, ok := s.prices[strings.ToUpper(symbol)]
	if !ok || px <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}
	return px, nil
}

// PaperExchange 本地撮合的模拟交易所：市价单按当前价成交，限价/条件单在每次查单时按最新价撮合。
type PaperExchange struct {
	Prices PriceSource
	Clock  poll.Clock

	mu        sync.Mutex
	book      *order.Book
	sm        *order.StateMachine
	nextID    int64
	triggered map[string]bool
	limits    map[string]float64 // 触发后的限价（STOP）
}

func NewPaperExchange(prices PriceSource) *PaperExchange {
	return &PaperExchange{
		Prices:    prices,
		Clock:     poll.RealClock,
		book:      order.NewBook(),
		sm:        order.NewStateMachine(),
		nextID:    1000,
		triggered: make(map[string]bool),
		limits:    make(map[string]float64),
	}
}

func (p *PaperExchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	px, err := p.Prices.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return px, nil
}

func (p *PaperExchange) PlaceOrder(ctx context.Context, req order.Request) (order.Order, error) {
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}
	px, err := p.CurrentPrice(ctx, req.Params().Symbol)
	if err != nil {
		return order.Order{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	base := req.Params()
	p.nextID++
	o := order.Order{
		ID:         strconv.FormatInt(p.nextID, 10),
		ClientID:   base.ClientID,
		Symbol:     base.Symbol,
		Side:       base.Side,
		Type:       req.Type(),
		Quantity:   base.Quantity,
		ReduceOnly: base.ReduceOnly,
		Status:     order.StatusNew,
		UpdateTime: p.Clock.Now(),
	}
	if o.ClientID == "" {
		o.ClientID = "paper-" + uuid.NewString()[:8]
	}
	switch r := req.(type) {
	case order.LimitRequest:
		o.Price, o.TimeInForce = r.Price, r.TimeInForce
	case order.StopLimitRequest:
		o.Price, o.StopPrice, o.TimeInForce = r.Price, r.StopPrice, r.TimeInForce
		p.limits[o.ID] = r.Price
	case order.StopMarketRequest:
		o.StopPrice = r.StopPrice
	case order.TakeProfitMarketRequest:
		o.StopPrice = r.StopPrice
	}
	if o.StopPrice > 0 && triggers(o, px) {
		return order.Order{}, &APIError{HTTPStatus: 400, Code: CodeImmediateTrigger, Message: "Order would immediately trigger."}
	}
	p.book.Set(o)
	p.match(o.ID, px)

	res, _ := p.book.Get(o.ID)
	if res.Status == order.StatusNew && (o.TimeInForce == order.IOC || o.TimeInForce == order.FOK) {
		res, _ = p.book.Update(o.ID, func(x *order.Order) {
			x.Status = order.StatusExpired
			x.UpdateTime = p.Clock.Now()
		})
	}
	return res, nil
}

func (p *PaperExchange) CancelOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.book.Get(orderID)
	if !ok || o.Symbol != symbol {
		return order.Order{}, &APIError{HTTPStatus: 400, Code: CodeOrderDoesNotExist, Message: "Order does not exist."}
	}
	if !p.sm.CanCancel(o.Status) {
		return order.Order{}, &APIError{HTTPStatus: 400, Code: CodeUnknownOrder, Message: "Unknown order sent."}
	}
	return p.book.Update(orderID, func(x *order.Order) {
		x.Status = order.StatusCanceled
		x.UpdateTime = p.Clock.Now()
	})
}

// GetOrder 先用最新价撮合该交易对的挂单，再返回订单。
func (p *PaperExchange) GetOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	px, err := p.CurrentPrice(ctx, symbol)
	if err != nil {
		return order.Order{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	o, ok := p.book.Get(orderID)
	if !ok || o.Symbol != symbol {
		return order.Order{}, &APIError{HTTPStatus: 400, Code: CodeOrderDoesNotExist, Message: "Order does not exist."}
	}
	for _, active := range p.book.Active() {
		if active.Symbol == symbol {
			p.match(active.ID, px)
		}
	}
	o, _ = p.book.Get(orderID)
	return o, nil
}

// Orders 返回全部模拟订单。
func (p *PaperExchange) Orders() []order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book.List()
}

func (p *PaperExchange) match(id string, px float64) {
	o, ok := p.book.Get(id)
	if !ok || !o.Status.IsActive() {
		return
	}
	fillPx := 0.0
	switch o.Type {
	case order.TypeMarket:
		fillPx = px
	case order.TypeLimit:
		if crosses(o.Side, o.Price, px) {
			fillPx = fillPrice(o.Side, o.Price, px)
		}
	case order.TypeStopMarket, order.TypeTakeProfitMarket:
		if triggers(o, px) {
			fillPx = px
		}
	case order.TypeStop:
		if !p.triggered[id] && triggers(o, px) {
			p.triggered[id] = true
		}
		if p.triggered[id] && crosses(o.Side, p.limits[id], px) {
			fillPx = fillPrice(o.Side, p.limits[id], px)
		}
	}
	if fillPx <= 0 {
		return
	}
	_, _ = p.book.Update(id, func(x *order.Order) {
		x.Status = order.StatusFilled
		x.ExecutedQty = x.Quantity
		x.AvgPrice = fillPx
		x.UpdateTime = p.Clock.Now()
	})
}

// crosses 限价单在当前价是否可成交。
func crosses(side order.Side, limit, px float64) bool {
	if side == order.SideBuy {
		return px <= limit
	}
	return px >= limit
}

// fillPrice 限价与当前价中对挂单方更优的价格。
func fillPrice(side order.Side, limit, px float64) float64 {
	if side == order.SideBuy {
		return math.Min(limit, px)
	}
	return math.Max(limit, px)
}

// triggers 条件单是否触发：STOP/STOP_MARKET 追涨杀跌，TAKE_PROFIT_MARKET 反向。
func triggers(o order.Order, px float64) bool {
	up := px >= o.StopPrice
	down := px <= o.StopPrice
	if o.Type == order.TypeTakeProfitMarket {
		up, down = down, up
	}
	if o.Side == order.SideBuy {
		return up
	}
	return down
}

// CancelAllOrders 撤销交易对全部挂单。
func (p *PaperExchange) CancelAllOrders(_ context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.book.Active() {
		if o.Symbol != symbol {
			continue
		}
		if _, err := p.book.Update(o.ID, func(x *order.Order) {
			x.Status = order.StatusCanceled
			x.UpdateTime = p.Clock.Now()
		}); err != nil {
			return err
		}
	}
	return nil
}
