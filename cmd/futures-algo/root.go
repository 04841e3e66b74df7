package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() (*cobra.Command, *app) {
	a := &app{alertOut: os.Stderr}

	root := &cobra.Command{
		Use:   "futures-algo",
		Short: "Binance USDT-M futures algorithmic order execution",
		Long: `futures-algo places and supervises algorithmic orders on Binance USDT-M futures:
single market/limit/stop-limit orders, OCO take-profit/stop-loss pairs,
range grids that re-balance on fills, and TWAP executions.

Use --paper to simulate fills locally against --paper-price, the mark price
stream (--ws-price) or the public ticker.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "YAML config file (defaults are used when empty)")
	pf.BoolVar(&a.flags.paper, "paper", false, "simulate orders locally instead of sending them")
	pf.StringSliceVar(&a.flags.paperPrices, "paper-price", nil, "fixed paper price, SYMBOL=PRICE (repeatable)")
	pf.BoolVar(&a.flags.wsPrice, "ws-price", false, "use the mark price websocket stream for current prices")
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	pf.BoolVar(&a.flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newMarketCmd(a),
		newLimitCmd(a),
		newStopLimitCmd(a),
		newOCOCmd(a),
		newOCOWatchCmd(a),
		newGridCmd(a),
		newTWAPCmd(a),
		newPriceCmd(a),
		newStatusCmd(a),
		newCancelCmd(a),
		newCancelAllCmd(a),
		newSymbolsCmd(a),
	)
	return root, a
}
