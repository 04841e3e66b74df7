package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"futures-algo-go/metrics"
	"futures-algo-go/order"
	"futures-algo-go/poll"
)

const strategyGrid = "grid"

// GridParams 网格参数。
type GridParams struct {
	Symbol           string
	LowerPrice       float64
	UpperPrice       float64
	Levels           int
	QuantityPerLevel float64
}

// GridConfig 监控配置；MaxMonitor 为 0 表示运行到手动停止。
type GridConfig struct {
	PollInterval time.Duration
	MaxMonitor   time.Duration
}

func DefaultGridConfig() GridConfig {
	return GridConfig{PollInterval: 10 * time.Second}
}

// GridState 网格控制器状态。
type GridState string

const (
	GridInit         GridState = "INIT"
	GridLevelsPlaced GridState = "LEVELS_PLACED"
	GridMonitoring   GridState = "MONITORING"
	GridUserStopped  GridState = "USER_STOPPED"
	GridTimeout      GridState = "TIMEOUT"
	GridFailed       GridState = "FAILED"
)

// GridFill 监控期间观测到的一次成交。
type GridFill struct {
	Side     order.Side
	Price    float64
	Quantity float64
	OrderID  string
	Time     time.Time
}

// GridResult 网格执行结果。
type GridResult struct {
	Outcome      Outcome
	State        GridState
	Symbol       string
	Ladder       []float64
	Step         float64
	CurrentPrice float64
	OrdersPlaced int
	Fills        []GridFill
	Retired      []float64
	OpenLevels   []GridLevel
}

// Grid 区间网格：档位下方挂买、上方挂卖，成交后在相邻档位挂反向单。
// 每个档位至多一个挂单：相邻档位已有挂单时不补单（level_occupied），
// 因此紧邻现价的第一笔成交通常不会产生补单，直到对面档位成交腾出位置。
type Grid struct {
	ex   Exchange
	p    GridParams
	cfg  GridConfig
	deps Deps

	ladder []float64
	step   float64
	book   *levelBook
	state  GridState

	fills   []GridFill
	retired []float64
}

// NewGrid 校验参数并生成价格阶梯，不发起网络调用。
func NewGrid(ex Exchange, p GridParams, cfg GridConfig, deps Deps) (*Grid, error) {
	p.Symbol = normalizeSymbol(p.Symbol)
	deps = deps.withDefaults()
	if err := order.ValidateSymbol(p.Symbol); err != nil {
		return nil, err
	}
	if err := order.ValidateQuantity(p.QuantityPerLevel); err != nil {
		return nil, err
	}
	if err := deps.checkQuantity(p.Symbol, p.QuantityPerLevel); err != nil {
		return nil, err
	}
	var tick float64
	if c, ok := deps.constraintsFor(p.Symbol); ok {
		tick = c.TickSize
	}
	ladder, err := BuildLadder(p.LowerPrice, p.UpperPrice, p.Levels, tick)
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultGridConfig().PollInterval
	}
	if cfg.MaxMonitor < 0 {
		cfg.MaxMonitor = 0
	}
	return &Grid{
		ex:     ex,
		p:      p,
		cfg:    cfg,
		deps:   deps,
		ladder: ladder,
		step:   GridStep(p.LowerPrice, p.UpperPrice, p.Levels),
		book:   newLevelBook(),
		state:  GridInit,
	}, nil
}

// Ladder 返回价格阶梯拷贝。
func (g *Grid) Ladder() []float64 { return append([]float64(nil), g.ladder...) }

// State 当前状态。
func (g *Grid) State() GridState { return g.state }

// RunGrid 构造并运行网格。
func RunGrid(ctx context.Context, ex Exchange, p GridParams, monitor bool, cfg GridConfig, deps Deps) (GridResult, error) {
	g, err := NewGrid(ex, p, cfg, deps)
	if err != nil {
		return GridResult{Outcome: OutcomeFailed, State: GridInit, Symbol: p.Symbol}, err
	}
	return g.Run(ctx, monitor, nil)
}

// Run 挂出全部档位；monitor 为 true 时持续再平衡直到取消或超时。
// onPlaced 在初始挂单完成后调用（可为 nil）。
func (g *Grid) Run(ctx context.Context, monitor bool, onPlaced func(GridResult)) (GridResult, error) {
	if g.state != GridInit {
		return g.result(OutcomeFailed, 0), fmt.Errorf("grid: already started (state %s)", g.state)
	}
	log := g.deps.Logger
	iterCtx := context.WithoutCancel(ctx)

	price, err := g.ex.CurrentPrice(ctx, g.p.Symbol)
	if err != nil {
		g.state = GridFailed
		metrics.IncrementStrategyRuns(strategyGrid, string(OutcomeFailed))
		return g.result(OutcomeFailed, 0), fmt.Errorf("%w: %s: %w", ErrPriceUnavailable, g.p.Symbol, err)
	}
	log.Info("grid starting",
		zap.String("symbol", g.p.Symbol),
		zap.Float64("current_price", price),
		zap.Float64s("ladder", g.ladder),
		zap.Float64("step", g.step))

	placed := 0
	for i, p := range g.ladder {
		if p == price {
			log.Info("grid level equals current price, skipped", zap.Float64("price", p))
			continue
		}
		side := order.SideSell
		if p < price {
			side = order.SideBuy
		}
		if _, ok := g.placeLevel(iterCtx, i, side); ok {
			placed++
		}
	}
	g.state = GridLevelsPlaced
	metrics.SetGridOpenLevels(g.p.Symbol, g.book.len())
	log.Info("grid levels placed", zap.Int("orders_placed", placed), zap.Int("levels", len(g.ladder)))

	res := g.result(OutcomePlaced, price)
	res.OrdersPlaced = placed
	if onPlaced != nil {
		onPlaced(res)
	}
	if !monitor || placed == 0 {
		metrics.IncrementStrategyRuns(strategyGrid, string(OutcomePlaced))
		return res, nil
	}

	g.state = GridMonitoring
	poller := poll.Poller{Clock: g.deps.Clock, Interval: g.cfg.PollInterval, Timeout: g.cfg.MaxMonitor}
	outcome, err := poller.Run(ctx, func(ictx context.Context) (bool, error) {
		g.pass(ictx)
		return false, nil
	})
	if err != nil {
		g.state = GridFailed
		return g.result(OutcomeFailed, price), err
	}

	final := OutcomeManualStop
	g.state = GridUserStopped
	if outcome == poll.Timeout {
		final = OutcomeTimeout
		g.state = GridTimeout
	}
	metrics.IncrementStrategyRuns(strategyGrid, string(final))
	log.Info("grid monitoring ended, resting orders left active",
		zap.String("outcome", string(final)),
		zap.Int("fills", len(g.fills)),
		zap.Int("open_levels", g.book.len()))

	res = g.result(final, price)
	res.OrdersPlaced = placed
	return res, nil
}

// pass 一轮检查。遍历开始时的快照：本轮新挂的档位不在本轮检查。
func (g *Grid) pass(ctx context.Context) {
	for _, lv := range g.book.snapshot() {
		cur, ok := g.book.get(lv.Index)
		if !ok || cur.OrderID != lv.OrderID {
			continue
		}
		st, err := g.ex.GetOrder(ctx, g.p.Symbol, lv.OrderID)
		if err != nil {
			g.deps.Logger.Warn("grid status check failed, retrying next poll",
				zap.String("order_id", lv.OrderID), zap.Error(err))
			continue
		}
		switch {
		case st.Status == order.StatusFilled:
			g.onFill(ctx, lv, st)
		case st.Status.IsFinal():
			g.book.remove(lv.Index)
			msg := fmt.Sprintf("level %v order %s is %s", lv.Price, lv.OrderID, st.Status)
			g.deps.Logger.Warn("grid level lost", zap.String("detail", msg))
			g.deps.emit(Event{
				Kind: EventLevelLost, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: lv.Side,
				OrderID: lv.OrderID, Price: lv.Price, Quantity: lv.Quantity, Message: msg,
			})
		}
	}
	metrics.SetGridOpenLevels(g.p.Symbol, g.book.len())
}

// onFill 成交的档位移除；BUY 在上一档挂 SELL，SELL 在下一档挂 BUY，越界则退役。
func (g *Grid) onFill(ctx context.Context, lv GridLevel, st order.Order) {
	g.book.remove(lv.Index)
	qty := st.ExecutedQty
	if qty <= 0 {
		qty = lv.Quantity
	}
	g.fills = append(g.fills, GridFill{
		Side: lv.Side, Price: lv.Price, Quantity: qty, OrderID: lv.OrderID, Time: g.deps.Clock.Now(),
	})
	metrics.IncrementFills(strategyGrid, strings.ToLower(string(lv.Side)))
	g.deps.emit(Event{
		Kind: EventOrderFilled, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: lv.Side,
		OrderID: lv.OrderID, Price: lv.Price, Quantity: qty,
	})
	g.deps.Logger.Info("grid level filled",
		zap.String("side", string(lv.Side)), zap.Float64("price", lv.Price), zap.String("order_id", lv.OrderID))

	target := lv.Index + 1
	if lv.Side == order.SideSell {
		target = lv.Index - 1
	}
	next := lv.Side.Opposite()

	if target < 0 || target >= len(g.ladder) {
		g.retired = append(g.retired, lv.Price)
		metrics.IncrementGridLevelsRetired(g.p.Symbol)
		msg := fmt.Sprintf("%s at %v would be outside [%v, %v]", next, g.replacementPrice(lv), g.p.LowerPrice, g.p.UpperPrice)
		g.deps.Logger.Warn("grid level retired", zap.String("detail", msg))
		g.deps.emit(Event{
			Kind: EventLevelRetired, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: next,
			Price: lv.Price, Quantity: lv.Quantity, Message: msg,
		})
		return
	}
	if occ, ok := g.book.get(target); ok {
		msg := fmt.Sprintf("level %v already holds %s order %s", occ.Price, occ.Side, occ.OrderID)
		g.deps.Logger.Info("grid replacement skipped", zap.String("detail", msg))
		g.deps.emit(Event{
			Kind: EventLevelOccupied, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: next,
			OrderID: occ.OrderID, Price: occ.Price, Quantity: lv.Quantity, Message: msg,
		})
		return
	}
	if _, ok := g.placeLevel(ctx, target, next); !ok {
		g.deps.emit(Event{
			Kind: EventReplacementFailed, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: next,
			Price: g.ladder[target], Quantity: g.p.QuantityPerLevel,
			Message: fmt.Sprintf("replacement for fill at %v not placed", lv.Price),
		})
	}
}

func (g *Grid) replacementPrice(lv GridLevel) float64 {
	if lv.Side == order.SideBuy {
		return lv.Price + g.step
	}
	return lv.Price - g.step
}

// placeLevel 在指定档位挂 GTC 限价单并登记。
func (g *Grid) placeLevel(ctx context.Context, idx int, side order.Side) (GridLevel, bool) {
	price := g.ladder[idx]
	req := order.LimitRequest{
		Base:        order.Base{Symbol: g.p.Symbol, Side: side, Quantity: g.p.QuantityPerLevel},
		Price:       price,
		TimeInForce: order.GTC,
	}
	o, err := g.ex.PlaceOrder(ctx, req)
	if err != nil {
		metrics.IncrementOrdersFailed(strategyGrid, string(order.TypeLimit))
		g.deps.Logger.Error("grid order placement failed",
			zap.String("side", string(side)), zap.Float64("price", price), zap.Error(err))
		g.deps.emit(Event{
			Kind: EventPlacementFailed, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: side,
			Price: price, Quantity: g.p.QuantityPerLevel, Message: err.Error(),
		})
		return GridLevel{}, false
	}
	lv := GridLevel{Index: idx, Price: price, Side: side, Quantity: g.p.QuantityPerLevel, OrderID: o.ID}
	g.book.put(lv)
	metrics.IncrementOrdersPlaced(strategyGrid, string(order.TypeLimit))
	g.deps.emit(Event{
		Kind: EventOrderPlaced, Strategy: strategyGrid, Symbol: g.p.Symbol, Side: side,
		OrderID: o.ID, Price: price, Quantity: g.p.QuantityPerLevel,
	})
	return lv, true
}

func (g *Grid) result(outcome Outcome, price float64) GridResult {
	return GridResult{
		Outcome:      outcome,
		State:        g.state,
		Symbol:       g.p.Symbol,
		Ladder:       g.Ladder(),
		Step:         g.step,
		CurrentPrice: price,
		Fills:        append([]GridFill(nil), g.fills...),
		Retired:      append([]float64(nil), g.retired...),
		OpenLevels:   g.book.snapshot(),
	}
}
