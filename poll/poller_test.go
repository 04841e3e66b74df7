package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPollerDone(t *testing.T) {
	clock := NewManualClock(epoch)
	p := Poller{Clock: clock, Interval: 5 * time.Second, Timeout: time.Minute}

	calls := 0
	out, err := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Done, out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clock.Sleeps())
}

func TestPollerTimeout(t *testing.T) {
	clock := NewManualClock(epoch)
	p := Poller{Clock: clock, Interval: 5 * time.Second, Timeout: 15 * time.Second}

	calls := 0
	out, err := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Timeout, out)
	// t=0,5,10 各检查一次
	assert.Equal(t, 3, calls)
}

func TestPollerStoppedDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := NewManualClock(epoch)
	clock.OnSleep = func(n int, d time.Duration) {
		if n == 2 {
			cancel()
		}
	}
	p := Poller{Clock: clock, Interval: time.Second}

	calls := 0
	out, err := p.Run(ctx, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Stopped, out)
	assert.Equal(t, 2, calls)
}

func TestPollerCancelDuringCheckFinishesIteration(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := Poller{Clock: NewManualClock(epoch), Interval: time.Second}
	var iterErr error
	out, err := p.Run(ctx, func(ictx context.Context) (bool, error) {
		cancel()
		iterErr = ictx.Err()
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, Stopped, out)
	assert.NoError(t, iterErr, "iteration context must survive the stop request")
}

func TestPollerCheckError(t *testing.T) {
	boom := errors.New("boom")
	p := Poller{Clock: NewManualClock(epoch), Interval: time.Second}
	out, err := p.Run(context.Background(), func(ctx context.Context) (bool, error) {
		return false, boom
	})
	assert.Equal(t, Done, out)
	assert.ErrorIs(t, err, boom)
}

func TestPollerInvalidInterval(t *testing.T) {
	_, err := Poller{}.Run(context.Background(), func(ctx context.Context) (bool, error) {
		t.Fatalf("check must not run")
		return false, nil
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRealClockSleepCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	err := RealClock.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "done", Done.String())
	assert.Equal(t, "timeout", Timeout.String())
	assert.Equal(t, "stopped", Stopped.String())
}

func TestManualClockSleepAndAdvance(t *testing.T) {
	c := NewManualClock(epoch)
	require.NoError(t, c.Sleep(context.Background(), 5*time.Second))
	c.Advance(time.Minute)
	assert.Equal(t, epoch.Add(5*time.Second+time.Minute), c.Now())
	assert.Equal(t, []time.Duration{5 * time.Second}, c.Sleeps(), "Advance is not a sleep")
}
