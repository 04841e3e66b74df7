package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"futures-algo-go/infrastructure/logger"
)

// ErrNoPrice 尚未收到或价格已过期。
var ErrNoPrice = errors.New("no fresh stream price")

type streamPrice struct {
	price float64
	at    time.Time
}

// MarkPriceStream 订阅 combined markPrice 流并缓存每个交易对的最新标记价格，断线自动重连。
type MarkPriceStream struct {
	BaseEndpoint   string // 默认 wss://fstream.binance.com
	Dialer         *websocket.Dialer
	Logger         *logger.Logger
	ReadTimeout    time.Duration
	ReconnectDelay time.Duration
	MaxAge         time.Duration // CurrentPrice 接受的最大价格年龄，0 表示不限制

	mu     sync.RWMutex
	prices map[string]streamPrice
}

func NewMarkPriceStream(endpoint string, log *logger.Logger) *MarkPriceStream {
	if endpoint == "" {
		endpoint = BinanceFuturesWSEndpoint
	}
	if log == nil {
		log = logger.Nop()
	}
	return &MarkPriceStream{
		BaseEndpoint:   endpoint,
		Dialer:         websocket.DefaultDialer,
		Logger:         log,
		ReadTimeout:    30 * time.Second,
		ReconnectDelay: 2 * time.Second,
		MaxAge:         10 * time.Second,
		prices:         make(map[string]streamPrice),
	}
}

// StreamURL 构建 combined stream 地址。
func (s *MarkPriceStream) StreamURL(symbols ...string) (string, error) {
	if len(symbols) == 0 {
		return "", fmt.Errorf("no symbols subscribed")
	}
	u, err := url.Parse(s.BaseEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid ws endpoint %q: %w", s.BaseEndpoint, err)
	}
	streams := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		streams = append(streams, strings.ToLower(sym)+"@markPrice@1s")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/stream"
	q := u.Query()
	q.Set("streams", strings.Join(streams, "/"))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Run 连接并读取消息直到 ctx 结束；连接失败或断开时等待后重连。
func (s *MarkPriceStream) Run(ctx context.Context, symbols ...string) error {
	endpoint, err := s.StreamURL(symbols...)
	if err != nil {
		return err
	}
	for {
		err := s.session(ctx, endpoint)
		if ctx.Err() != nil {
			return nil
		}
		s.Logger.Warn("mark price stream disconnected, reconnecting",
			zap.Error(err), zap.Duration("delay", s.ReconnectDelay))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.ReconnectDelay):
		}
	}
}

func (s *MarkPriceStream) session(ctx context.Context, endpoint string) error {
	conn, _, err := s.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.Logger.Info("mark price stream connected", zap.String("url", endpoint))

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		if s.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		sym, px, at, err := ParseMarkPrice(message)
		if err != nil {
			s.Logger.Debug("skip ws message", zap.Error(err))
			continue
		}
		if at.IsZero() {
			at = time.Now()
		}
		s.mu.Lock()
		s.prices[sym] = streamPrice{price: px, at: at}
		s.mu.Unlock()
	}
}

// Latest 返回缓存的最新价格及其时间。
func (s *MarkPriceStream) Latest(symbol string) (float64, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[strings.ToUpper(symbol)]
	return p.price, p.at, ok
}

// CurrentPrice 返回未过期的缓存价格，否则返回 ErrNoPrice。
func (s *MarkPriceStream) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	px, at, ok := s.Latest(symbol)
	if !ok || px <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoPrice, symbol)
	}
	if s.MaxAge > 0 && time.Since(at) > s.MaxAge {
		return 0, fmt.Errorf("%w: %s price is %s old", ErrNoPrice, symbol, time.Since(at).Round(time.Millisecond))
	}
	return px, nil
}
