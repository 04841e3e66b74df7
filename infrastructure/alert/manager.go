package alert

import (
	"fmt"
	"sync"
	"time"

	"futures-algo-go/strategy"
)

// Level 告警级别
type Level string

const (
	LevelInfo     Level = "INFO"
	LevelWarning  Level = "WARNING"
	LevelError    Level = "ERROR"
	LevelCritical Level = "CRITICAL"
)

// Alert 告警信息
type Alert struct {
	Level     Level
	Kind      string // 策略事件类型，例如 level_lost
	Strategy  string
	Symbol    string
	Message   string
	Timestamp time.Time
	Fields    map[string]interface{}
}

// Channel 告警通道接口
type Channel interface {
	Send(alert Alert) error
	Name() string
}

// Manager 告警管理器，按 级别+类型+交易对+消息 限流。
type Manager struct {
	channels []Channel
	throttle *Throttler
	mu       sync.RWMutex
}

// Throttler 告警限流器
type Throttler struct {
	lastSent map[string]time.Time
	interval time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

func NewThrottler(interval time.Duration) *Throttler {
	return &Throttler{
		lastSent: make(map[string]time.Time),
		interval: interval,
		now:      time.Now,
	}
}

// Allow 同一 key 在 interval 内只放行一次。
func (t *Throttler) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	last, ok := t.lastSent[key]
	if !ok || now.Sub(last) >= t.interval {
		t.lastSent[key] = now
		return true
	}
	return false
}

func (t *Throttler) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSent = make(map[string]time.Time)
}

func NewManager(channels []Channel, throttleInterval time.Duration) *Manager {
	return &Manager{
		channels: channels,
		throttle: NewThrottler(throttleInterval),
	}
}

// SendAlert 发送到所有通道；被限流时静默忽略，全部通道失败才返回错误。
func (m *Manager) SendAlert(alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	key := fmt.Sprintf("%s:%s:%s:%s", alert.Level, alert.Kind, alert.Symbol, alert.Message)
	if !m.throttle.Allow(key) {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var lastErr error
	ok := 0
	for _, ch := range m.channels {
		if err := ch.Send(alert); err != nil {
			lastErr = fmt.Errorf("channel %s failed: %w", ch.Name(), err)
		} else {
			ok++
		}
	}
	if ok == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}

func (m *Manager) SendWarning(message string, fields map[string]interface{}) error {
	return m.SendAlert(Alert{Level: LevelWarning, Message: message, Fields: fields})
}

func (m *Manager) SendError(message string, fields map[string]interface{}) error {
	return m.SendAlert(Alert{Level: LevelError, Message: message, Fields: fields})
}

func (m *Manager) AddChannel(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, ch)
}

// GetChannels 获取所有通道名
func (m *Manager) GetChannels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.channels))
	for _, ch := range m.channels {
		names = append(names, ch.Name())
	}
	return names
}

func (m *Manager) ResetThrottle() {
	m.throttle.Clear()
}

// FromEvent 把策略事件转换为告警；Info 级事件返回 false。
func FromEvent(ev strategy.Event) (Alert, bool) {
	var lvl Level
	switch ev.Kind.Severity() {
	case strategy.SeverityError:
		lvl = LevelError
	case strategy.SeverityWarning:
		lvl = LevelWarning
	default:
		return Alert{}, false
	}
	fields := map[string]interface{}{}
	if ev.Side != "" {
		fields["side"] = string(ev.Side)
	}
	if ev.OrderID != "" {
		fields["order_id"] = ev.OrderID
	}
	if ev.Price != 0 {
		fields["price"] = ev.Price
	}
	if ev.Quantity != 0 {
		fields["quantity"] = ev.Quantity
	}
	msg := ev.Message
	if msg == "" {
		msg = string(ev.Kind)
	}
	return Alert{
		Level:     lvl,
		Kind:      string(ev.Kind),
		Strategy:  ev.Strategy,
		Symbol:    ev.Symbol,
		Message:   msg,
		Timestamp: ev.Time,
		Fields:    fields,
	}, true
}

// Sink 返回一个 EventSink：警告/错误事件转发为告警，所有事件继续交给 next（可为空）。
func (m *Manager) Sink(next strategy.EventSink, onErr func(error)) strategy.EventSink {
	return func(ev strategy.Event) {
		if a, ok := FromEvent(ev); ok {
			if err := m.SendAlert(a); err != nil && onErr != nil {
				onErr(err)
			}
		}
		if next != nil {
			next(ev)
		}
	}
}
