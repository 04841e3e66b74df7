package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"futures-algo-go/metrics"
	"futures-algo-go/order"
	"futures-algo-go/poll"
)

const strategyOCO = "oco"

// OCOParams OCO 参数。SELL 平多：止盈高于止损；BUY 平空：止损高于止盈。
type OCOParams struct {
	Symbol          string
	Side            order.Side
	Quantity        float64
	TakeProfitPrice float64
	StopLossPrice   float64
	ReduceOnly      bool
}

// OCOConfig 监控配置；MaxMonitor 为 0 表示不限时。
type OCOConfig struct {
	PollInterval time.Duration
	MaxMonitor   time.Duration
}

func DefaultOCOConfig() OCOConfig {
	return OCOConfig{PollInterval: 5 * time.Second, MaxMonitor: 24 * time.Hour}
}

// OCOResult OCO 执行结果。
type OCOResult struct {
	Outcome           Outcome
	State             OCOState
	Symbol            string
	TakeProfitOrderID string
	StopLossOrderID   string
	Filled            Leg
	Cancelled         Leg          // 本次由引擎撤销，或在交易所已是 CANCELED 的另一条腿
	SiblingStatus     order.Status // 成交后另一条腿的最终状态
	FilledOrder       order.Order
}

// OCO 一对止盈/止损条件单，一条成交后撤销另一条。
type OCO struct {
	ex   Exchange
	p    OCOParams
	cfg  OCOConfig
	deps Deps

	state OCOState
	tpID  string
	slID  string
}

// NewOCO 校验参数，任何网络调用之前失败。
func NewOCO(ex Exchange, p OCOParams, cfg OCOConfig, deps Deps) (*OCO, error) {
	p.Symbol = normalizeSymbol(p.Symbol)
	deps = deps.withDefaults()
	if err := validateOCO(p); err != nil {
		return nil, err
	}
	if err := deps.checkQuantity(p.Symbol, p.Quantity); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultOCOConfig().PollInterval
	}
	if cfg.MaxMonitor < 0 {
		cfg.MaxMonitor = 0
	}
	return &OCO{ex: ex, p: p, cfg: cfg, deps: deps, state: OCOInit}, nil
}

// ResumeOCO 对已存在的两条腿重新挂上监控。
func ResumeOCO(ex Exchange, symbol, takeProfitID, stopLossID string, cfg OCOConfig, deps Deps) (*OCO, error) {
	symbol = normalizeSymbol(symbol)
	if err := order.ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if takeProfitID == "" || stopLossID == "" {
		return nil, order.Invalid("orderId", nil, "both leg order ids are required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultOCOConfig().PollInterval
	}
	return &OCO{
		ex:    ex,
		p:     OCOParams{Symbol: symbol},
		cfg:   cfg,
		deps:  deps.withDefaults(),
		state: OCOStopLossPlaced,
		tpID:  takeProfitID,
		slID:  stopLossID,
	}, nil
}

func validateOCO(p OCOParams) error {
	if err := order.ValidateSymbol(p.Symbol); err != nil {
		return err
	}
	if err := order.ValidateSide(p.Side); err != nil {
		return err
	}
	if err := order.ValidateQuantity(p.Quantity); err != nil {
		return err
	}
	if err := order.ValidateNamedPrice("takeProfitPrice", p.TakeProfitPrice); err != nil {
		return err
	}
	if err := order.ValidateNamedPrice("stopLossPrice", p.StopLossPrice); err != nil {
		return err
	}
	if p.Side == order.SideSell && p.TakeProfitPrice <= p.StopLossPrice {
		return order.Invalid("takeProfitPrice", p.TakeProfitPrice,
			"SELL OCO requires take-profit above stop-loss %v", p.StopLossPrice)
	}
	if p.Side == order.SideBuy && p.StopLossPrice <= p.TakeProfitPrice {
		return order.Invalid("stopLossPrice", p.StopLossPrice,
			"BUY OCO requires stop-loss above take-profit %v", p.TakeProfitPrice)
	}
	return nil
}

// State 当前状态。
func (o *OCO) State() OCOState { return o.state }

// OrderIDs 返回止盈、止损订单号。
func (o *OCO) OrderIDs() (takeProfit, stopLoss string) { return o.tpID, o.slID }

// RunOCO 构造并运行 OCO。
func RunOCO(ctx context.Context, ex Exchange, p OCOParams, monitor bool, cfg OCOConfig, deps Deps) (OCOResult, error) {
	o, err := NewOCO(ex, p, cfg, deps)
	if err != nil {
		return OCOResult{Outcome: OutcomeFailed, State: OCOInit, Symbol: p.Symbol}, err
	}
	return o.Run(ctx, monitor)
}

// Run 依次挂止盈、止损，monitor 为 true 时监控至一条成交、超时或被取消。
func (o *OCO) Run(ctx context.Context, monitor bool) (OCOResult, error) {
	if o.state != OCOInit {
		return o.result(OutcomeFailed), fmt.Errorf("oco: already started (state %s)", o.state)
	}
	log := o.deps.Logger
	p := o.p

	if price, err := o.ex.CurrentPrice(ctx, p.Symbol); err != nil {
		log.Warn("oco reference price unavailable", zap.String("symbol", p.Symbol), zap.Error(err))
	} else {
		log.Info("oco reference price", zap.String("symbol", p.Symbol), zap.Float64("price", price))
		o.checkReferencePrice(price)
	}

	base := order.Base{Symbol: p.Symbol, Side: p.Side, Quantity: p.Quantity, ReduceOnly: p.ReduceOnly}
	placeCtx := context.WithoutCancel(ctx)

	tp, err := o.place(placeCtx, order.TakeProfitMarketRequest{Base: base, StopPrice: p.TakeProfitPrice}, LegTakeProfit)
	if err != nil {
		_ = o.transition(OCOPlacementFailed)
		return o.finish(OutcomeFailed), fmt.Errorf("%w: take-profit leg: %w", ErrPlacementFailed, err)
	}
	o.tpID = tp.ID
	_ = o.transition(OCOTakeProfitPlaced)

	sl, err := o.place(placeCtx, order.StopMarketRequest{Base: base, StopPrice: p.StopLossPrice}, LegStopLoss)
	if err != nil {
		placeErr := fmt.Errorf("%w: stop-loss leg: %w", ErrPlacementFailed, err)
		if _, cerr := o.cancel(placeCtx, o.tpID, LegTakeProfit); cerr != nil {
			placeErr = errors.Join(placeErr, fmt.Errorf("%w: take-profit %s: %w", ErrCancelFailed, o.tpID, cerr))
		}
		_ = o.transition(OCOPlacementFailed)
		return o.finish(OutcomeFailed), placeErr
	}
	o.slID = sl.ID
	_ = o.transition(OCOStopLossPlaced)

	log.Info("oco legs placed",
		zap.String("symbol", p.Symbol),
		zap.String("take_profit_id", o.tpID),
		zap.String("stop_loss_id", o.slID))

	if !monitor {
		_ = o.transition(OCOPlaced)
		return o.finish(OutcomePlaced), nil
	}
	return o.Monitor(ctx)
}

// Monitor 轮询两条腿直到有结论。超时或取消时两条腿都保持挂单。
func (o *OCO) Monitor(ctx context.Context) (OCOResult, error) {
	if err := o.transition(OCOMonitoring); err != nil {
		return o.result(OutcomeFailed), err
	}
	poller := poll.Poller{Clock: o.deps.Clock, Interval: o.cfg.PollInterval, Timeout: o.cfg.MaxMonitor}

	var (
		res    OCOResult
		resErr error
	)
	outcome, err := poller.Run(ctx, func(ictx context.Context) (bool, error) {
		done, r, rerr := o.check(ictx)
		if done {
			res, resErr = r, rerr
		}
		return done, nil
	})
	if err != nil {
		return o.finish(OutcomeFailed), err
	}

	switch outcome {
	case poll.Timeout:
		_ = o.transition(OCOTimeout)
		o.deps.Logger.Warn("oco monitoring timed out, legs left active",
			zap.String("take_profit_id", o.tpID), zap.String("stop_loss_id", o.slID))
		return o.finish(OutcomeTimeout), nil
	case poll.Stopped:
		_ = o.transition(OCOUserStopped)
		o.deps.Logger.Info("oco monitoring stopped by user, legs left active",
			zap.String("take_profit_id", o.tpID), zap.String("stop_loss_id", o.slID))
		return o.finish(OutcomeManualStop), nil
	}
	metrics.IncrementStrategyRuns(strategyOCO, string(res.Outcome))
	return res, resErr
}

// check 单轮检查；任一查询失败视为暂时性错误，下轮重试。
func (o *OCO) check(ctx context.Context) (bool, OCOResult, error) {
	sym := o.p.Symbol
	tp, tpErr := o.ex.GetOrder(ctx, sym, o.tpID)
	sl, slErr := o.ex.GetOrder(ctx, sym, o.slID)
	if tpErr != nil || slErr != nil {
		o.deps.Logger.Warn("oco status check failed, retrying next poll",
			zap.NamedError("take_profit_err", tpErr), zap.NamedError("stop_loss_err", slErr))
		return false, OCOResult{}, nil
	}

	switch {
	case tp.Status == order.StatusFilled && sl.Status == order.StatusFilled:
		_ = o.transition(OCOBothFilled)
		o.emitFill(LegTakeProfit, tp)
		o.emitFill(LegStopLoss, sl)
		res := o.result(OutcomeFailed)
		res.FilledOrder = tp
		return true, res, &UnexpectedLegStateError{Leg: LegStopLoss, OrderID: o.slID, Status: sl.Status}

	case tp.Status == order.StatusFilled:
		res, err := o.resolveFill(ctx, LegTakeProfit, tp, LegStopLoss, o.slID, sl)
		return true, res, err

	case sl.Status == order.StatusFilled:
		res, err := o.resolveFill(ctx, LegStopLoss, sl, LegTakeProfit, o.tpID, tp)
		return true, res, err

	case tp.Status.IsFinal():
		err := o.resolveDeadLeg(ctx, LegTakeProfit, tp, LegStopLoss, o.slID, sl)
		return true, o.result(OutcomeFailed), err

	case sl.Status.IsFinal():
		err := o.resolveDeadLeg(ctx, LegStopLoss, sl, LegTakeProfit, o.tpID, tp)
		return true, o.result(OutcomeFailed), err
	}

	if tp.Status == order.StatusPartiallyFilled || sl.Status == order.StatusPartiallyFilled {
		o.deps.Logger.Debug("oco leg partially filled",
			zap.String("take_profit_status", string(tp.Status)),
			zap.String("stop_loss_status", string(sl.Status)))
	}
	return false, OCOResult{}, nil
}

// resolveFill 一条腿成交：撤销仍在挂单的另一条腿。
func (o *OCO) resolveFill(ctx context.Context, filled Leg, fo order.Order, other Leg, otherID string, oo order.Order) (OCOResult, error) {
	if filled == LegTakeProfit {
		_ = o.transition(OCOTakeProfitFilled)
	} else {
		_ = o.transition(OCOStopLossFilled)
	}
	o.emitFill(filled, fo)

	res := o.result(OutcomeCompleted)
	res.Filled = filled
	res.FilledOrder = fo

	if !oo.Status.IsActive() {
		res.SiblingStatus = oo.Status
		if oo.Status == order.StatusCanceled {
			res.Cancelled = other
		}
		o.deps.Logger.Info("oco sibling already closed, no cancel sent",
			zap.String("leg", string(other)), zap.String("order_id", otherID),
			zap.String("status", string(oo.Status)))
		return res, nil
	}
	c, err := o.cancel(ctx, otherID, other)
	if err != nil {
		o.deps.Logger.Error("oco sibling cancel failed, order may still be live",
			zap.String("leg", string(other)), zap.String("order_id", otherID), zap.Error(err))
		res.SiblingStatus = oo.Status
		return res, fmt.Errorf("%w: %s %s: %w", ErrCancelFailed, other, otherID, err)
	}
	res.Cancelled = other
	res.SiblingStatus = order.StatusCanceled
	if c.Status != "" {
		res.SiblingStatus = c.Status
	}
	return res, nil
}

// resolveDeadLeg 一条腿被撤销/拒绝/过期：撤掉另一条腿并报错。
func (o *OCO) resolveDeadLeg(ctx context.Context, dead Leg, do order.Order, other Leg, otherID string, oo order.Order) error {
	_ = o.transition(OCOLegRejected)
	legErr := &UnexpectedLegStateError{Leg: dead, OrderID: do.ID, Status: do.Status}
	o.deps.emit(Event{
		Kind: EventLegUnexpected, Strategy: strategyOCO, Symbol: o.p.Symbol,
		OrderID: do.ID, Message: legErr.Error(),
	})
	o.deps.Logger.Error("oco leg in unexpected state", zap.Error(legErr))

	if oo.Status.IsActive() {
		if _, err := o.cancel(ctx, otherID, other); err != nil {
			return errors.Join(legErr, fmt.Errorf("%w: %s %s: %w", ErrCancelFailed, other, otherID, err))
		}
	}
	return legErr
}

func (o *OCO) place(ctx context.Context, req order.Request, leg Leg) (order.Order, error) {
	placed, err := o.ex.PlaceOrder(ctx, req)
	if err != nil {
		metrics.IncrementOrdersFailed(strategyOCO, string(req.Type()))
		o.deps.emit(Event{
			Kind: EventPlacementFailed, Strategy: strategyOCO, Symbol: o.p.Symbol,
			Side: o.p.Side, Quantity: o.p.Quantity, Message: fmt.Sprintf("%s: %v", leg, err),
		})
		o.deps.Logger.Error("oco leg placement failed", zap.String("leg", string(leg)), zap.Error(err))
		return order.Order{}, err
	}
	metrics.IncrementOrdersPlaced(strategyOCO, string(req.Type()))
	o.deps.emit(Event{
		Kind: EventOrderPlaced, Strategy: strategyOCO, Symbol: o.p.Symbol, Side: o.p.Side,
		OrderID: placed.ID, Price: placed.StopPrice, Quantity: placed.Quantity, Message: string(leg),
	})
	return placed, nil
}

func (o *OCO) cancel(ctx context.Context, orderID string, leg Leg) (order.Order, error) {
	c, err := o.ex.CancelOrder(ctx, o.p.Symbol, orderID)
	if err != nil {
		return c, err
	}
	metrics.IncrementOrdersCanceled(strategyOCO)
	o.deps.emit(Event{
		Kind: EventOrderCanceled, Strategy: strategyOCO, Symbol: o.p.Symbol,
		OrderID: orderID, Message: string(leg),
	})
	o.deps.Logger.Info("oco leg cancelled", zap.String("leg", string(leg)), zap.String("order_id", orderID))
	return c, nil
}

func (o *OCO) emitFill(leg Leg, fo order.Order) {
	metrics.IncrementFills(strategyOCO, string(leg))
	o.deps.emit(Event{
		Kind: EventOrderFilled, Strategy: strategyOCO, Symbol: o.p.Symbol, Side: fo.Side,
		OrderID: fo.ID, Price: fo.AvgPrice, Quantity: fo.ExecutedQty, Message: string(leg),
	})
	o.deps.Logger.Info("oco leg filled",
		zap.String("leg", string(leg)), zap.String("order_id", fo.ID), zap.Float64("avg_price", fo.AvgPrice))
}

// checkReferencePrice 现价不在两条腿之间时告警。
func (o *OCO) checkReferencePrice(price float64) {
	lo, hi := o.p.StopLossPrice, o.p.TakeProfitPrice
	if o.p.Side == order.SideBuy {
		lo, hi = hi, lo
	}
	if price > lo && price < hi {
		return
	}
	msg := fmt.Sprintf("current price %v is not between %v and %v, a leg may trigger immediately", price, lo, hi)
	o.deps.Logger.Warn("oco price outside legs", zap.String("detail", msg))
	o.deps.emit(Event{Kind: EventPriceOutsideLegs, Strategy: strategyOCO, Symbol: o.p.Symbol, Price: price, Message: msg})
}

func (o *OCO) result(outcome Outcome) OCOResult {
	return OCOResult{
		Outcome:           outcome,
		State:             o.state,
		Symbol:            o.p.Symbol,
		TakeProfitOrderID: o.tpID,
		StopLossOrderID:   o.slID,
	}
}

func (o *OCO) finish(outcome Outcome) OCOResult {
	metrics.IncrementStrategyRuns(strategyOCO, string(outcome))
	return o.result(outcome)
}
