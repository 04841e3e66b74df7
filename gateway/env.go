package gateway

const (
	BinanceFuturesRESTEndpoint = "https://fapi.binance.com"
	BinanceFuturesWSEndpoint   = "wss://fstream.binance.com"
	BinanceTestnetRESTEndpoint = "https://testnet.binancefuture.com"
	BinanceTestnetWSEndpoint   = "wss://stream.binancefuture.com"
)

// Endpoints 返回测试网或生产环境的 REST/WS 地址。
func Endpoints(testnet bool) (rest, ws string) {
	if testnet {
		return BinanceTestnetRESTEndpoint, BinanceTestnetWSEndpoint
	}
	return BinanceFuturesRESTEndpoint, BinanceFuturesWSEndpoint
}
