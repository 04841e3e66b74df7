package order

import (
	"sort"
	"sync"
)

// Book 记录订单和状态，支持查询；状态更新经状态机校验。
type Book struct {
	mu     sync.RWMutex
	orders map[string]Order
	sm     *StateMachine
}

func NewBook() *Book {
	return &Book{orders: make(map[string]Order), sm: NewStateMachine()}
}

func (b *Book) Set(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders[o.ID] = o
}

func (b *Book) Get(id string) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[id]
	return o, ok
}

// Update 对已登记订单应用修改，修改后的状态必须是合法转换。
func (b *Book) Update(id string, fn func(*Order)) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	next := o
	fn(&next)
	if err := b.sm.ValidateTransition(o.Status, next.Status); err != nil {
		return o, err
	}
	b.orders[id] = next
	return next, nil
}

// Active 返回仍在挂单中的订单，按 ID 排序。
func (b *Book) Active() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		if o.Status.IsActive() {
			res = append(res, o)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// List 返回全部订单（拷贝）。
func (b *Book) List() []Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		res = append(res, o)
	}
	return res
}
