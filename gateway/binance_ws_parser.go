package gateway

import (
	"encoding/json"
	"fmt"
	"time"
)

// CombinedMessage 对应 binance combined stream 包装。
type CombinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// MarkPriceUpdate markPriceUpdate 事件的核心字段。
type MarkPriceUpdate struct {
	Event     string      `json:"e"`
	EventTime int64       `json:"E"`
	Symbol    string      `json:"s"`
	MarkPrice json.Number `json:"p"`
	IndexPx   json.Number `json:"i"`
}

// ParseMarkPrice 解析 combined stream 的标记价格消息，也兼容未包装的单流消息。
func ParseMarkPrice(raw []byte) (symbol string, price float64, at time.Time, err error) {
	var msg CombinedMessage
	if err = json.Unmarshal(raw, &msg); err != nil {
		return
	}
	payload := msg.Data
	if len(payload) == 0 {
		payload = raw
	}
	var upd MarkPriceUpdate
	if err = json.Unmarshal(payload, &upd); err != nil {
		return
	}
	if upd.Event != "markPriceUpdate" {
		err = fmt.Errorf("unexpected event %q", upd.Event)
		return
	}
	symbol = upd.Symbol
	if price, err = upd.MarkPrice.Float64(); err != nil {
		return
	}
	if upd.EventTime > 0 {
		at = time.UnixMilli(upd.EventTime)
	}
	return
}
