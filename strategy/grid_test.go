package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-algo-go/order"
	"futures-algo-go/poll"
)

func btcGrid() GridParams {
	return GridParams{Symbol: "BTCUSDT", LowerPrice: 100, UpperPrice: 200, Levels: 4, QuantityPerLevel: 1}
}

// stopAfter 第 n 次等待时取消 ctx，其余等待执行 each。
func stopAfter(clock *poll.ManualClock, cancel context.CancelFunc, n int, each func(int)) {
	clock.OnSleep = func(i int, d time.Duration) {
		if each != nil {
			each(i)
		}
		if i == n {
			cancel()
		}
	}
}

func TestBuildLadder(t *testing.T) {
	ladder, err := BuildLadder(100, 200, 4, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 125, 150, 175, 200}, ladder)

	ladder, err = BuildLadder(100, 200, 3, 0.01)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 133.33, 166.67, 200}, ladder)

	_, err = BuildLadder(200, 100, 4, 0)
	assert.ErrorIs(t, err, order.ErrValidation)
	_, err = BuildLadder(100, 200, 1, 0)
	assert.ErrorIs(t, err, order.ErrValidation)
	_, err = BuildLadder(100, 100.02, 10, 0.01)
	assert.ErrorIs(t, err, order.ErrValidation, "step below tick must be rejected")

	assert.Equal(t, 25.0, GridStep(100, 200, 4))
}

func TestGridInitialPlacement(t *testing.T) {
	ex := newFakeExchange(140)
	res, err := RunGrid(context.Background(), ex, btcGrid(), false, DefaultGridConfig(), Deps{})
	require.NoError(t, err)

	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, 5, res.OrdersPlaced)
	assert.Equal(t, []float64{100, 125, 150, 175, 200}, res.Ladder)

	want := []struct {
		side  order.Side
		price float64
	}{
		{order.SideBuy, 100}, {order.SideBuy, 125},
		{order.SideSell, 150}, {order.SideSell, 175}, {order.SideSell, 200},
	}
	require.Len(t, ex.placed, len(want))
	for i, w := range want {
		req, ok := ex.placed[i].(order.LimitRequest)
		require.True(t, ok)
		assert.Equal(t, w.side, req.Side)
		assert.Equal(t, w.price, req.Price)
		assert.Equal(t, order.GTC, req.TimeInForce)
		assert.Equal(t, 1.0, req.Quantity)
	}
	assert.Len(t, res.OpenLevels, 5)
}

func TestGridSkipsLevelAtCurrentPrice(t *testing.T) {
	ex := newFakeExchange(150)
	res, err := RunGrid(context.Background(), ex, btcGrid(), false, DefaultGridConfig(), Deps{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.OrdersPlaced)
	assert.Empty(t, ex.idAt(150))
}

func TestGridPriceUnavailable(t *testing.T) {
	ex := newFakeExchange(140)
	ex.priceErr = errExchangeDown
	res, err := RunGrid(context.Background(), ex, btcGrid(), true, DefaultGridConfig(), Deps{})
	assert.ErrorIs(t, err, ErrPriceUnavailable)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 0, ex.placedCount())
}

func TestGridValidation(t *testing.T) {
	ex := newFakeExchange(140)
	bad := []GridParams{
		{Symbol: "BTCUSDT", LowerPrice: 200, UpperPrice: 100, Levels: 4, QuantityPerLevel: 1},
		{Symbol: "BTCUSDT", LowerPrice: 100, UpperPrice: 200, Levels: 1, QuantityPerLevel: 1},
		{Symbol: "BTCUSDT", LowerPrice: 100, UpperPrice: 200, Levels: 4, QuantityPerLevel: 0},
		{Symbol: "BTC", LowerPrice: 100, UpperPrice: 200, Levels: 4, QuantityPerLevel: 1},
		{Symbol: "BTCUSDT", LowerPrice: -1, UpperPrice: 200, Levels: 4, QuantityPerLevel: 1},
	}
	for _, p := range bad {
		_, err := NewGrid(ex, p, DefaultGridConfig(), Deps{})
		assert.ErrorIs(t, err, order.ErrValidation, "%+v", p)
	}
	assert.Equal(t, 0, ex.placedCount())
}

func TestGridRebalanceOnFills(t *testing.T) {
	ex := newFakeExchange(140)
	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 3, func(i int) {
		switch i {
		case 1:
			ex.fill(ex.idAt(125)) // BUY@125 成交，150 已有卖单
		case 2:
			ex.fill(ex.idAt(150)) // SELL@150 成交，125 已空出
		}
	})

	var placedSummary GridResult
	g, err := NewGrid(ex, btcGrid(), DefaultGridConfig(), Deps{Clock: clock, Events: rec.sink})
	require.NoError(t, err)
	res, err := g.Run(ctx, true, func(r GridResult) { placedSummary = r })
	require.NoError(t, err)

	assert.Equal(t, 5, placedSummary.OrdersPlaced)
	assert.Equal(t, OutcomeManualStop, res.Outcome)
	assert.Equal(t, GridUserStopped, res.State)
	require.Len(t, res.Fills, 2)
	assert.Equal(t, order.SideBuy, res.Fills[0].Side)
	assert.Equal(t, 125.0, res.Fills[0].Price)
	assert.Equal(t, order.SideSell, res.Fills[1].Side)
	assert.Equal(t, 150.0, res.Fills[1].Price)

	require.Equal(t, 6, ex.placedCount())
	last := ex.placed[5].(order.LimitRequest)
	assert.Equal(t, order.SideBuy, last.Side)
	assert.Equal(t, 125.0, last.Price)

	assert.Equal(t, 1, rec.count(EventLevelOccupied))
	assert.Len(t, res.OpenLevels, 4)
	for _, d := range clock.Sleeps() {
		assert.Equal(t, 10*time.Second, d)
	}
}

func TestGridBoundaryBuyAtUpperRetires(t *testing.T) {
	ex := newFakeExchange(250)
	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 2, func(i int) {
		if i == 1 {
			ex.fill(ex.idAt(200))
		}
	})

	res, err := RunGrid(ctx, ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: clock, Events: rec.sink})
	require.NoError(t, err)
	assert.Equal(t, 5, ex.placedCount(), "no replacement above upper bound")
	assert.Equal(t, []float64{200}, res.Retired)
	assert.Equal(t, 1, rec.count(EventLevelRetired))
	assert.Len(t, res.OpenLevels, 4)
}

func TestGridBoundarySellAtLowerRetires(t *testing.T) {
	ex := newFakeExchange(50)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 2, func(i int) {
		if i == 1 {
			ex.fill(ex.idAt(100))
		}
	})

	res, err := RunGrid(ctx, ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: clock})
	require.NoError(t, err)
	assert.Equal(t, 5, ex.placedCount(), "no replacement below lower bound")
	assert.Equal(t, []float64{100}, res.Retired)
}

func TestGridNewLevelsNotExaminedInSamePass(t *testing.T) {
	ex := newFakeExchange(140)
	ex.placeErrs[2] = errExchangeDown // SELL@150 初始失败
	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newID := ""
	getsBeforeNextPass := -1
	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 2, func(i int) {
		switch i {
		case 1:
			ex.fill(ex.idAt(125))
		case 2:
			newID = ex.idAt(150)
			getsBeforeNextPass = ex.getCount(newID)
		}
	})

	res, err := RunGrid(ctx, ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: clock, Events: rec.sink})
	require.NoError(t, err)
	assert.Equal(t, 4, res.OrdersPlaced)
	assert.Equal(t, 1, rec.count(EventPlacementFailed))
	require.NotEmpty(t, newID, "SELL@150 replacement placed")
	assert.Equal(t, 0, getsBeforeNextPass)
}

func TestGridLostLevel(t *testing.T) {
	ex := newFakeExchange(140)
	rec := &eventRecorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 2, func(i int) {
		if i == 1 {
			ex.setStatus(ex.idAt(175), order.StatusCanceled)
		}
	})

	res, err := RunGrid(ctx, ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: clock, Events: rec.sink})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count(EventLevelLost))
	assert.Len(t, res.OpenLevels, 4)
	assert.Equal(t, 5, ex.placedCount())
}

func TestGridTransientStatusFailureSkipsLevel(t *testing.T) {
	ex := newFakeExchange(140)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := poll.NewManualClock(testEpoch)
	stopAfter(clock, cancel, 2, func(i int) {
		if i == 1 {
			ex.getFailures = 5
		}
	})
	res, err := RunGrid(ctx, ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: clock})
	require.NoError(t, err)
	assert.Len(t, res.OpenLevels, 5)
	assert.Empty(t, res.Fills)
}

func TestGridMaxMonitorTimeout(t *testing.T) {
	ex := newFakeExchange(140)
	clock := poll.NewManualClock(testEpoch)
	cfg := GridConfig{PollInterval: 10 * time.Second, MaxMonitor: 30 * time.Second}
	res, err := RunGrid(context.Background(), ex, btcGrid(), true, cfg, Deps{Clock: clock})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, GridTimeout, res.State)
	assert.Len(t, clock.Sleeps(), 3)
	assert.Empty(t, ex.cancelled(), "stopping leaves resting orders")
}

func TestGridNoOrdersPlacedReturnsSummary(t *testing.T) {
	ex := newFakeExchange(140)
	for i := 0; i < 5; i++ {
		ex.placeErrs[i] = errExchangeDown
	}
	res, err := RunGrid(context.Background(), ex, btcGrid(), true, DefaultGridConfig(), Deps{Clock: poll.NewManualClock(testEpoch)})
	require.NoError(t, err)
	assert.Equal(t, OutcomePlaced, res.Outcome)
	assert.Equal(t, 0, res.OrdersPlaced)
	assert.Len(t, res.Ladder, 5)
}
