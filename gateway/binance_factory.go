package gateway

import (
	"net/http"
	"time"

	"futures-algo-go/infrastructure/logger"
	"futures-algo-go/order"
)

// ClientOptions 构建 Binance 客户端所需的参数，URL 为空时按 Testnet 选择默认地址。
type ClientOptions struct {
	APIKey       string
	APISecret    string
	RESTURL      string
	WSURL        string
	Testnet      bool
	RecvWindowMs int64
	RateLimit    float64
	RateBurst    int
	Timeout      time.Duration
	Constraints  map[string]order.SymbolConstraints
	HTTPClient   *http.Client
}

// BuildBinanceClients 构建 REST 客户端与标记价格流（不发起连接）。
func BuildBinanceClients(opts ClientOptions, log *logger.Logger) (*BinanceRESTClient, *MarkPriceStream) {
	restURL, wsURL := Endpoints(opts.Testnet)
	if opts.RESTURL != "" {
		restURL = opts.RESTURL
	}
	if opts.WSURL != "" {
		wsURL = opts.WSURL
	}
	httpCli := opts.HTTPClient
	if httpCli == nil {
		httpCli = NewDefaultHTTPClient()
		if opts.Timeout > 0 {
			httpCli.Timeout = opts.Timeout
		}
	}
	rest := &BinanceRESTClient{
		BaseURL:      restURL,
		APIKey:       opts.APIKey,
		Secret:       opts.APISecret,
		RecvWindowMs: opts.RecvWindowMs,
		HTTPClient:   httpCli,
		Constraints:  opts.Constraints,
	}
	if opts.RateLimit > 0 {
		rest.Limiter = NewTokenBucketLimiter(opts.RateLimit, opts.RateBurst)
	}
	return rest, NewMarkPriceStream(wsURL, log)
}
