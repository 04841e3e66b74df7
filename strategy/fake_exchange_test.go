package strategy

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"futures-algo-go/order"
)

var errExchangeDown = errors.New("exchange unavailable")

// fakeExchange 按脚本返回结果的交易所，记录所有调用。
type fakeExchange struct {
	mu sync.Mutex

	price    float64
	priceErr error
	nextID   int
	orders   map[string]*order.Order

	placed  []order.Request
	cancels []string
	gets    map[string]int

	placeErrs   map[int]error // 第 n 次下单（从 0 计）返回错误
	getFailures int           // 接下来 n 次查单失败
	cancelErr   error
	marketState order.Status // 市价单回报状态，默认 FILLED
	partialQty  float64      // marketState 为 PARTIALLY_FILLED 时的成交量
}

func newFakeExchange(price float64) *fakeExchange {
	return &fakeExchange{
		price:     price,
		orders:    make(map[string]*order.Order),
		gets:      make(map[string]int),
		placeErrs: make(map[int]error),
	}
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req order.Request) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.placed)
	f.placed = append(f.placed, req)
	if err := f.placeErrs[n]; err != nil {
		return order.Order{}, err
	}
	f.nextID++
	b := req.Params()
	o := &order.Order{
		ID:       strconv.Itoa(1000 + f.nextID),
		Symbol:   b.Symbol,
		Side:     b.Side,
		Type:     req.Type(),
		Quantity: b.Quantity,
		Status:   order.StatusNew,
	}
	switch r := req.(type) {
	case order.LimitRequest:
		o.Price = r.Price
		o.TimeInForce = r.TimeInForce
	case order.StopLimitRequest:
		o.Price = r.Price
		o.StopPrice = r.StopPrice
	case order.StopMarketRequest:
		o.StopPrice = r.StopPrice
	case order.TakeProfitMarketRequest:
		o.StopPrice = r.StopPrice
	case order.MarketRequest:
		o.Status = order.StatusFilled
		if f.marketState != "" {
			o.Status = f.marketState
		}
		switch o.Status {
		case order.StatusFilled:
			o.ExecutedQty = b.Quantity
			o.AvgPrice = f.price
		case order.StatusPartiallyFilled:
			o.ExecutedQty = f.partialQty
			o.AvgPrice = f.price
		}
	}
	f.orders[o.ID] = o
	return *o, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, orderID)
	if f.cancelErr != nil {
		return order.Order{}, f.cancelErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return order.Order{}, order.ErrUnknownOrder
	}
	o.Status = order.StatusCanceled
	return *o, nil
}

func (f *fakeExchange) GetOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[orderID]++
	if f.getFailures > 0 {
		f.getFailures--
		return order.Order{}, errExchangeDown
	}
	o, ok := f.orders[orderID]
	if !ok {
		return order.Order{}, order.ErrUnknownOrder
	}
	return *o, nil
}

func (f *fakeExchange) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.priceErr != nil {
		return 0, f.priceErr
	}
	return f.price, nil
}

func (f *fakeExchange) setPrice(p float64) {
	f.mu.Lock()
	f.price = p
	f.mu.Unlock()
}

// fill 将订单标记为完全成交。
func (f *fakeExchange) fill(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	o.Status = order.StatusFilled
	o.ExecutedQty = o.Quantity
	o.AvgPrice = o.Price
	if o.AvgPrice == 0 {
		o.AvgPrice = o.StopPrice
	}
}

func (f *fakeExchange) setStatus(id string, st order.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[id].Status = st
}

// idAt 返回指定价格上最近下的限价单 ID。
func (f *fakeExchange) idAt(price float64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	best := ""
	bestN := -1
	for id, o := range f.orders {
		n, _ := strconv.Atoi(id)
		if o.Price == price && n > bestN {
			best, bestN = id, n
		}
	}
	return best
}

func (f *fakeExchange) placedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placed)
}

func (f *fakeExchange) cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cancels...)
}

func (f *fakeExchange) getCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[id]
}

// eventRecorder 收集策略事件。
type eventRecorder struct {
	events []Event
}

func (r *eventRecorder) sink(ev Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *eventRecorder) count(k EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == k {
			n++
		}
	}
	return n
}
