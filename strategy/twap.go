package strategy

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"futures-algo-go/metrics"
	"futures-algo-go/order"
)

const strategyTWAP = "twap"

// ChunkOutcome 单个分片的结果。
type ChunkOutcome string

const (
	ChunkFilled  ChunkOutcome = "FILLED"
	ChunkPending ChunkOutcome = "PENDING" // 已受理但交易所尚未确认完全成交
	ChunkFailed  ChunkOutcome = "FAILED" // 交易所拒绝或网关失败
	ChunkError   ChunkOutcome = "ERROR"  // 请求无效或被取消
)

// TWAPParams TWAP 参数。
type TWAPParams struct {
	Symbol        string
	Side          order.Side
	TotalQuantity float64
	Duration      time.Duration
	Chunks        int
}

// TWAPConfig 间隔低于 MinInterval 时告警。
type TWAPConfig struct {
	MinInterval time.Duration
}

func DefaultTWAPConfig() TWAPConfig {
	return TWAPConfig{MinInterval: time.Second}
}

// TWAPChunk 分片执行记录。
type TWAPChunk struct {
	Index     int
	Quantity  float64
	OrderID   string
	Status    order.Status // 交易所最后一次返回的状态
	FilledQty float64
	AvgPrice  float64
	Outcome   ChunkOutcome
	Err       error
}

// TWAPResult 汇总结果，AveragePrice 为成交量加权均价。
type TWAPResult struct {
	Outcome         Outcome
	Symbol          string
	Side            order.Side
	TotalQuantity   float64
	ChunkSize       float64
	Interval        time.Duration
	TotalExecuted   float64
	ChunksCompleted int
	AveragePrice    float64
	TotalCost       float64
	Chunks          []TWAPChunk
}

// TWAP 在给定时长内按固定间隔分批市价成交。
type TWAP struct {
	ex   Exchange
	p    TWAPParams
	cfg  TWAPConfig
	deps Deps

	chunkSize float64
	interval  time.Duration
}

// NewTWAP 校验参数并计算分片计划。
func NewTWAP(ex Exchange, p TWAPParams, cfg TWAPConfig, deps Deps) (*TWAP, error) {
	p.Symbol = normalizeSymbol(p.Symbol)
	deps = deps.withDefaults()
	if err := order.ValidateSymbol(p.Symbol); err != nil {
		return nil, err
	}
	if err := order.ValidateSide(p.Side); err != nil {
		return nil, err
	}
	if err := order.ValidateQuantity(p.TotalQuantity); err != nil {
		return nil, err
	}
	if p.Chunks <= 0 {
		return nil, order.Invalid("numChunks", p.Chunks, "must be positive")
	}
	if p.Duration <= 0 {
		return nil, order.Invalid("duration", p.Duration, "must be positive")
	}
	chunk := p.TotalQuantity / float64(p.Chunks)
	if !(chunk > 0) || math.IsInf(chunk, 0) {
		return nil, order.Invalid("chunkSize", chunk, "must be positive")
	}
	if c, ok := deps.constraintsFor(p.Symbol); ok && c.MinQty > 0 && chunk < c.MinQty {
		return nil, order.Invalid("chunkSize", chunk, "below minQty %v for %s", c.MinQty, p.Symbol)
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &TWAP{
		ex:        ex,
		p:         p,
		cfg:       cfg,
		deps:      deps,
		chunkSize: chunk,
		interval:  p.Duration / time.Duration(p.Chunks),
	}, nil
}

// Plan 返回每片数量与间隔。
func (t *TWAP) Plan() (chunkSize float64, interval time.Duration) {
	return t.chunkSize, t.interval
}

// RunTWAP 构造并运行 TWAP。
func RunTWAP(ctx context.Context, ex Exchange, p TWAPParams, cfg TWAPConfig, deps Deps) (TWAPResult, error) {
	t, err := NewTWAP(ex, p, cfg, deps)
	if err != nil {
		return TWAPResult{Outcome: OutcomeFailed, Symbol: p.Symbol, Side: p.Side, TotalQuantity: p.TotalQuantity}, err
	}
	return t.Run(ctx)
}

// Run 顺序执行所有分片；单片失败不影响后续，最后一片后不再等待。
// ctx 取消后不再调度新的分片。
func (t *TWAP) Run(ctx context.Context) (TWAPResult, error) {
	log := t.deps.Logger
	if t.interval < t.cfg.MinInterval {
		msg := fmt.Sprintf("interval %s is below %s, orders may be rate limited", t.interval, t.cfg.MinInterval)
		log.Warn("twap interval too short", zap.String("detail", msg))
		t.deps.emit(Event{Kind: EventIntervalWarning, Strategy: strategyTWAP, Symbol: t.p.Symbol, Message: msg})
	}
	log.Info("twap starting",
		zap.String("symbol", t.p.Symbol),
		zap.String("side", string(t.p.Side)),
		zap.Float64("total", t.p.TotalQuantity),
		zap.Float64("chunk", t.chunkSize),
		zap.Duration("interval", t.interval),
		zap.Int("chunks", t.p.Chunks))

	res := TWAPResult{
		Outcome:       OutcomeCompleted,
		Symbol:        t.p.Symbol,
		Side:          t.p.Side,
		TotalQuantity: t.p.TotalQuantity,
		ChunkSize:     t.chunkSize,
		Interval:      t.interval,
	}
	iterCtx := context.WithoutCancel(ctx)

	for i := 0; i < t.p.Chunks; i++ {
		if ctx.Err() != nil {
			res.Outcome = OutcomeManualStop
			break
		}
		c := t.executeChunk(iterCtx, i)
		res.Chunks = append(res.Chunks, c)
		metrics.IncrementTWAPChunk(string(c.Outcome))

		if i == t.p.Chunks-1 {
			break
		}
		if err := t.deps.Clock.Sleep(ctx, t.interval); err != nil {
			res.Outcome = OutcomeManualStop
			break
		}
	}

	for _, c := range res.Chunks {
		if c.Outcome == ChunkFilled {
			res.ChunksCompleted++
		}
		if c.FilledQty <= 0 {
			continue
		}
		res.TotalExecuted += c.FilledQty
		res.TotalCost += c.FilledQty * c.AvgPrice
	}
	res.TotalExecuted = math.Min(res.TotalExecuted, t.p.TotalQuantity)
	if res.TotalExecuted > 0 {
		res.AveragePrice = res.TotalCost / res.TotalExecuted
	}
	if res.Outcome == OutcomeManualStop {
		log.Info("twap interrupted by user", zap.Int("chunks_attempted", len(res.Chunks)))
	}
	metrics.IncrementStrategyRuns(strategyTWAP, string(res.Outcome))
	log.Info("twap finished",
		zap.String("outcome", string(res.Outcome)),
		zap.Float64("executed", res.TotalExecuted),
		zap.Int("chunks_completed", res.ChunksCompleted),
		zap.Float64("avg_price", res.AveragePrice))
	return res, nil
}

func (t *TWAP) executeChunk(ctx context.Context, i int) TWAPChunk {
	c := TWAPChunk{Index: i, Quantity: t.chunkSize}
	req := order.MarketRequest{Base: order.Base{Symbol: t.p.Symbol, Side: t.p.Side, Quantity: t.chunkSize}}

	o, err := t.ex.PlaceOrder(ctx, req)
	if err != nil {
		c.Err = err
		c.Outcome = ChunkFailed
		if isRequestError(err) {
			c.Outcome = ChunkError
		}
		metrics.IncrementOrdersFailed(strategyTWAP, string(order.TypeMarket))
		t.deps.Logger.Error("twap chunk failed", zap.Int("chunk", i+1), zap.Error(err))
		t.deps.emit(Event{
			Kind: EventChunkFailed, Strategy: strategyTWAP, Symbol: t.p.Symbol, Side: t.p.Side,
			Quantity: t.chunkSize, Message: fmt.Sprintf("chunk %d/%d: %v", i+1, t.p.Chunks, err),
		})
		return c
	}
	metrics.IncrementOrdersPlaced(strategyTWAP, string(order.TypeMarket))

	// 市价单回报可能尚未包含成交信息，补查一次
	if o.Status != order.StatusFilled && !o.Status.IsFinal() {
		if fresh, qerr := t.ex.GetOrder(ctx, t.p.Symbol, o.ID); qerr == nil {
			o = fresh
		} else {
			t.deps.Logger.Debug("twap chunk refresh failed", zap.String("order_id", o.ID), zap.Error(qerr))
		}
	}

	c.OrderID = o.ID
	c.Status = o.Status
	if o.Status.IsFinal() && o.Status != order.StatusFilled {
		c.Outcome = ChunkFailed
		c.Err = fmt.Errorf("order %s ended %s", o.ID, o.Status)
		t.deps.Logger.Error("twap chunk not executed", zap.Int("chunk", i+1), zap.Error(c.Err))
		t.deps.emit(Event{
			Kind: EventChunkFailed, Strategy: strategyTWAP, Symbol: t.p.Symbol, Side: t.p.Side,
			OrderID: o.ID, Quantity: t.chunkSize, Message: c.Err.Error(),
		})
		return c
	}
	c.FilledQty = math.Min(o.ExecutedQty, t.chunkSize)
	c.AvgPrice = o.AvgPrice
	if o.Status != order.StatusFilled {
		c.Outcome = ChunkPending
		t.deps.Logger.Warn("twap chunk not confirmed filled",
			zap.Int("chunk", i+1),
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.Float64("filled", c.FilledQty))
		return c
	}
	c.Outcome = ChunkFilled
	metrics.IncrementFills(strategyTWAP, "chunk")
	t.deps.emit(Event{
		Kind: EventChunkExecuted, Strategy: strategyTWAP, Symbol: t.p.Symbol, Side: t.p.Side,
		OrderID: o.ID, Price: o.AvgPrice, Quantity: c.FilledQty,
		Message: fmt.Sprintf("chunk %d/%d", i+1, t.p.Chunks),
	})
	t.deps.Logger.Info("twap chunk executed",
		zap.Int("chunk", i+1),
		zap.String("order_id", o.ID),
		zap.Float64("filled", c.FilledQty),
		zap.Float64("avg_price", c.AvgPrice))
	return c
}
