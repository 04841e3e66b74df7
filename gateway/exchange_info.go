package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"futures-algo-go/order"
)

// SymbolInfo exchangeInfo 中单个交易对的精度与过滤器。
type SymbolInfo struct {
	Symbol            string
	Status            string
	PricePrecision    int
	QuantityPrecision int
	TickSize          float64
	MinPrice          float64
	MaxPrice          float64
	StepSize          float64
	MinQty            float64
	MaxQty            float64
	MinNotional       float64
}

// Constraints 转换为下单校验使用的约束。
func (s SymbolInfo) Constraints() order.SymbolConstraints {
	return order.SymbolConstraints{
		TickSize:    s.TickSize,
		StepSize:    s.StepSize,
		MinQty:      s.MinQty,
		MaxQty:      s.MaxQty,
		MinNotional: s.MinNotional,
	}
}

type exchangeInfoResp struct {
	Symbols []struct {
		Symbol            string `json:"symbol"`
		Status            string `json:"status"`
		PricePrecision    int    `json:"pricePrecision"`
		QuantityPrecision int    `json:"quantityPrecision"`
		Filters           []struct {
			FilterType string `json:"filterType"`
			TickSize   string `json:"tickSize"`
			MinPrice   string `json:"minPrice"`
			MaxPrice   string `json:"maxPrice"`
			StepSize   string `json:"stepSize"`
			MinQty     string `json:"minQty"`
			MaxQty     string `json:"maxQty"`
			Notional   string `json:"notional"`
		} `json:"filters"`
	} `json:"symbols"`
}

// ExchangeInfo 查询 /fapi/v1/exchangeInfo（公开接口），symbols 为空时返回全部交易对。
func (c *BinanceRESTClient) ExchangeInfo(ctx context.Context, symbols ...string) ([]SymbolInfo, error) {
	var resp exchangeInfoResp
	if err := c.do(ctx, "exchange_info", http.MethodGet, "/fapi/v1/exchangeInfo", map[string]string{}, false, &resp); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[strings.ToUpper(s)] = true
	}

	var out []SymbolInfo
	for _, s := range resp.Symbols {
		if len(want) > 0 && !want[s.Symbol] {
			continue
		}
		info := SymbolInfo{
			Symbol:            s.Symbol,
			Status:            s.Status,
			PricePrecision:    s.PricePrecision,
			QuantityPrecision: s.QuantityPrecision,
		}
		for _, f := range s.Filters {
			var err error
			switch f.FilterType {
			case "PRICE_FILTER":
				err = parseFields(map[*float64]string{&info.TickSize: f.TickSize, &info.MinPrice: f.MinPrice, &info.MaxPrice: f.MaxPrice})
			case "LOT_SIZE":
				err = parseFields(map[*float64]string{&info.StepSize: f.StepSize, &info.MinQty: f.MinQty, &info.MaxQty: f.MaxQty})
			case "MIN_NOTIONAL":
				err = parseFields(map[*float64]string{&info.MinNotional: f.Notional})
			}
			if err != nil {
				return nil, fmt.Errorf("%w: %s %s: %v", ErrGateway, s.Symbol, f.FilterType, err)
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// parseFields 把字符串数值解析到对应字段。
func parseFields(fields map[*float64]string) error {
	for dst, raw := range fields {
		v, err := parseDecimal(raw)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// CancelAllOrders 撤销交易对全部挂单（DELETE /fapi/v1/allOpenOrders）。
func (c *BinanceRESTClient) CancelAllOrders(ctx context.Context, symbol string) error {
	var resp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	params := map[string]string{"symbol": symbol}
	if err := c.do(ctx, "cancel_all", http.MethodDelete, "/fapi/v1/allOpenOrders", params, true, &resp); err != nil {
		return err
	}
	if resp.Code != 0 && resp.Code != 200 {
		return &APIError{HTTPStatus: http.StatusOK, Code: resp.Code, Message: resp.Msg}
	}
	return nil
}
