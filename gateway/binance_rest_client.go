package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"futures-algo-go/metrics"
	"futures-algo-go/order"
)

// BinanceRESTClient USDT 合约 REST 客户端，实现下单/撤单/查单/取价。HTTPClient 可注入 httptest。
type BinanceRESTClient struct {
	BaseURL      string
	APIKey       string
	Secret       string
	RecvWindowMs int64
	HTTPClient   *http.Client
	Limiter      RateLimiter
	// Constraints 用于格式化价格/数量的小数位，缺省时输出最短表示。
	Constraints map[string]order.SymbolConstraints
}

// orderResp /fapi/v1/order 返回体。
type orderResp struct {
	OrderID       json.Number `json:"orderId"`
	Symbol        string      `json:"symbol"`
	Status        string      `json:"status"`
	ClientOrderID string      `json:"clientOrderId"`
	Price         string      `json:"price"`
	AvgPrice      string      `json:"avgPrice"`
	OrigQty       string      `json:"origQty"`
	ExecutedQty   string      `json:"executedQty"`
	StopPrice     string      `json:"stopPrice"`
	Type          string      `json:"type"`
	Side          string      `json:"side"`
	TimeInForce   string      `json:"timeInForce"`
	ReduceOnly    bool        `json:"reduceOnly"`
	UpdateTime    int64       `json:"updateTime"`
}

type tickerResp struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// PlaceOrder 调用 POST /fapi/v1/order。请求先做本地校验，未通过不会发出。
func (c *BinanceRESTClient) PlaceOrder(ctx context.Context, req order.Request) (order.Order, error) {
	if err := req.Validate(); err != nil {
		return order.Order{}, err
	}
	params := c.orderParams(req)
	var resp orderResp
	if err := c.do(ctx, "place_order", http.MethodPost, "/fapi/v1/order", params, true, &resp); err != nil {
		return order.Order{}, err
	}
	return resp.toOrder()
}

// CancelOrder 调用 DELETE /fapi/v1/order。
func (c *BinanceRESTClient) CancelOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	params := map[string]string{"symbol": symbol, "orderId": orderID}
	var resp orderResp
	if err := c.do(ctx, "cancel_order", http.MethodDelete, "/fapi/v1/order", params, true, &resp); err != nil {
		return order.Order{}, err
	}
	return resp.toOrder()
}

// GetOrder 调用 GET /fapi/v1/order。
func (c *BinanceRESTClient) GetOrder(ctx context.Context, symbol, orderID string) (order.Order, error) {
	params := map[string]string{"symbol": symbol, "orderId": orderID}
	var resp orderResp
	if err := c.do(ctx, "get_order", http.MethodGet, "/fapi/v1/order", params, true, &resp); err != nil {
		return order.Order{}, err
	}
	return resp.toOrder()
}

// CurrentPrice 最新成交价，公开接口不签名。
func (c *BinanceRESTClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var resp tickerResp
	params := map[string]string{"symbol": symbol}
	if err := c.do(ctx, "ticker_price", http.MethodGet, "/fapi/v1/ticker/price", params, false, &resp); err != nil {
		return 0, err
	}
	price, err := parseDecimal(resp.Price)
	if err != nil || price <= 0 {
		return 0, fmt.Errorf("%w: invalid ticker price %q", ErrGateway, resp.Price)
	}
	return price, nil
}

func (c *BinanceRESTClient) orderParams(req order.Request) map[string]string {
	base := req.Params()
	cons := c.Constraints[base.Symbol]
	qtyDec, pxDec := int32(-1), int32(-1)
	if cons.StepSize > 0 {
		qtyDec = cons.QtyDecimals()
	}
	if cons.TickSize > 0 {
		pxDec = cons.PriceDecimals()
	}
	clientID := base.ClientID
	if clientID == "" {
		clientID = "algo-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	}
	params := map[string]string{
		"symbol":           base.Symbol,
		"side":             string(base.Side),
		"type":             string(req.Type()),
		"quantity":         order.FormatDecimal(base.Quantity, qtyDec),
		"newClientOrderId": clientID,
	}
	if base.ReduceOnly {
		params["reduceOnly"] = "true"
	}
	switch r := req.(type) {
	case order.MarketRequest:
		params["newOrderRespType"] = "RESULT"
	case order.LimitRequest:
		params["price"] = order.FormatDecimal(r.Price, pxDec)
		params["timeInForce"] = string(r.TimeInForce)
	case order.StopLimitRequest:
		params["price"] = order.FormatDecimal(r.Price, pxDec)
		params["stopPrice"] = order.FormatDecimal(r.StopPrice, pxDec)
		params["timeInForce"] = string(r.TimeInForce)
	case order.StopMarketRequest:
		params["stopPrice"] = order.FormatDecimal(r.StopPrice, pxDec)
	case order.TakeProfitMarketRequest:
		params["stopPrice"] = order.FormatDecimal(r.StopPrice, pxDec)
	}
	return params
}

func (c *BinanceRESTClient) do(ctx context.Context, op, method, path string, params map[string]string, signed bool, out any) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveGatewayCall(op, start, err) }()

	if c == nil || c.HTTPClient == nil {
		return fmt.Errorf("%w: http client not set", ErrGateway)
	}
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}
	var query string
	if signed {
		if c.RecvWindowMs > 0 {
			params["recvWindow"] = strconv.FormatInt(c.RecvWindowMs, 10)
		}
		q, sig := SignParams(params, c.Secret)
		query = q + "&signature=" + url.QueryEscape(sig)
	} else {
		v := url.Values{}
		for k, val := range params {
			v.Set(k, val)
		}
		query = v.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path+"?"+query, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrGateway, err)
	}
	if c.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", ErrGateway, method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrGateway, err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode}
		if jerr := json.Unmarshal(body, apiErr); jerr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrGateway, path, err)
	}
	return nil
}

func (r orderResp) toOrder() (order.Order, error) {
	if r.OrderID.String() == "" {
		return order.Order{}, fmt.Errorf("%w: empty orderId", ErrGateway)
	}
	status, err := order.ParseStatus(r.Status)
	if err != nil {
		return order.Order{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	o := order.Order{
		ID:          r.OrderID.String(),
		ClientID:    r.ClientOrderID,
		Symbol:      r.Symbol,
		Side:        order.Side(r.Side),
		Type:        order.Type(r.Type),
		TimeInForce: order.TimeInForce(r.TimeInForce),
		ReduceOnly:  r.ReduceOnly,
		Status:      status,
	}
	if r.UpdateTime > 0 {
		o.UpdateTime = time.UnixMilli(r.UpdateTime)
	}
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{r.OrigQty, &o.Quantity},
		{r.ExecutedQty, &o.ExecutedQty},
		{r.Price, &o.Price},
		{r.StopPrice, &o.StopPrice},
		{r.AvgPrice, &o.AvgPrice},
	} {
		v, err := parseDecimal(f.raw)
		if err != nil {
			return order.Order{}, fmt.Errorf("%w: %v", ErrGateway, err)
		}
		*f.dst = v
	}
	return o, nil
}

// parseDecimal 空串视为 0。
func parseDecimal(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
