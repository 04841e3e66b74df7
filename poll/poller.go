package poll

import (
	"context"
	"errors"
	"time"
)

// Outcome 轮询结束原因。
type Outcome int

const (
	Done Outcome = iota
	Timeout
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Timeout:
		return "timeout"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CheckFunc 单次检查；done=true 或返回错误时结束轮询。
type CheckFunc func(ctx context.Context) (done bool, err error)

// ErrInvalidInterval 轮询间隔必须为正。
var ErrInvalidInterval = errors.New("poll interval must be positive")

// Poller 按固定间隔重复检查，直到条件满足、超时或被取消。
type Poller struct {
	Clock    Clock
	Interval time.Duration
	Timeout  time.Duration // 0 表示不限时
}

// Run 执行轮询。检查函数拿到的 ctx 不随调用方取消，
// 保证取消时当前这一轮完整跑完，然后在等待处退出。
func (p Poller) Run(ctx context.Context, check CheckFunc) (Outcome, error) {
	if p.Interval <= 0 {
		return Done, ErrInvalidInterval
	}
	clock := p.Clock
	if clock == nil {
		clock = RealClock
	}
	start := clock.Now()
	iterCtx := context.WithoutCancel(ctx)

	for {
		if p.Timeout > 0 && clock.Now().Sub(start) >= p.Timeout {
			return Timeout, nil
		}
		if ctx.Err() != nil {
			return Stopped, nil
		}
		done, err := check(iterCtx)
		if err != nil {
			return Done, err
		}
		if done {
			return Done, nil
		}
		if err := clock.Sleep(ctx, p.Interval); err != nil {
			return Stopped, nil
		}
	}
}
