package strategy

import (
	"time"

	"futures-algo-go/order"
)

// EventKind 策略事件类型。
type EventKind string

const (
	EventOrderPlaced       EventKind = "order_placed"
	EventOrderFilled       EventKind = "order_filled"
	EventOrderCanceled     EventKind = "order_canceled"
	EventPlacementFailed   EventKind = "placement_failed"
	EventLegUnexpected     EventKind = "leg_unexpected"
	EventLevelRetired      EventKind = "level_retired"
	EventLevelOccupied     EventKind = "level_occupied"
	EventLevelLost         EventKind = "level_lost"
	EventReplacementFailed EventKind = "replacement_failed"
	EventChunkExecuted     EventKind = "chunk_executed"
	EventChunkFailed       EventKind = "chunk_failed"
	EventIntervalWarning   EventKind = "interval_warning"
	EventPriceDeviation    EventKind = "price_deviation"
	EventPriceOutsideLegs  EventKind = "price_outside_legs"
	EventStopTriggersNow   EventKind = "stop_triggers_now"
)

// Severity 事件严重程度。
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Severity 返回事件默认严重程度。
func (k EventKind) Severity() Severity {
	switch k {
	case EventPlacementFailed, EventLegUnexpected, EventReplacementFailed, EventLevelLost, EventChunkFailed:
		return SeverityError
	case EventLevelRetired, EventLevelOccupied, EventIntervalWarning, EventPriceDeviation, EventPriceOutsideLegs,
		EventStopTriggersNow:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Event 策略执行过程中的可观测事件。
type Event struct {
	Kind     EventKind
	Strategy string
	Symbol   string
	Side     order.Side
	OrderID  string
	Price    float64
	Quantity float64
	Message  string
	Time     time.Time
}

// EventSink 接收事件；在策略所在的 goroutine 上同步调用。
type EventSink func(Event)
