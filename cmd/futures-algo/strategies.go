package main

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"futures-algo-go/strategy"
)

func newOCOCmd(a *app) *cobra.Command {
	var monitor, reduceOnly bool
	cmd := &cobra.Command{
		Use:   "oco SYMBOL SIDE QTY TAKE_PROFIT STOP_LOSS",
		Short: "Place a take-profit/stop-loss pair and optionally supervise it",
		Long: `Places a TAKE_PROFIT_MARKET leg and a STOP_MARKET leg with the same side and
quantity. With --monitor the pair is polled until one leg fills (the other is
cancelled), the monitoring window ends or the command is interrupted.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, side, err := sideArgs(args[0], args[1])
			if err != nil {
				return err
			}
			qty, err := parseFloat("quantity", args[2])
			if err != nil {
				return err
			}
			tp, err := parseFloat("takeProfitPrice", args[3])
			if err != nil {
				return err
			}
			sl, err := parseFloat("stopLossPrice", args[4])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			if monitor {
				a.watchConfig(cmd.Context())
			}
			p := strategy.OCOParams{
				Symbol: sym, Side: side, Quantity: qty,
				TakeProfitPrice: tp, StopLossPrice: sl, ReduceOnly: reduceOnly,
			}
			res, err := strategy.RunOCO(cmd.Context(), ex, p, monitor, a.cfg.Strategy.OCOConfig(), a.deps())
			printOCO(cmd.OutOrStdout(), res)
			return err
		},
	}
	cmd.Flags().BoolVar(&monitor, "monitor", false, "supervise the pair until one leg fills")
	cmd.Flags().BoolVar(&reduceOnly, "reduce-only", true, "mark both legs reduce-only")
	return cmd
}

func newOCOWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "oco-watch SYMBOL TAKE_PROFIT_ID STOP_LOSS_ID",
		Short: "Resume supervision of an existing take-profit/stop-loss pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, err := parseSymbol(args[0])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			o, err := strategy.ResumeOCO(ex, sym, args[1], args[2], a.cfg.Strategy.OCOConfig(), a.deps())
			if err != nil {
				return err
			}
			a.watchConfig(cmd.Context())
			res, err := o.Monitor(cmd.Context())
			printOCO(cmd.OutOrStdout(), res)
			return err
		},
	}
}

func newGridCmd(a *app) *cobra.Command {
	var monitor bool
	cmd := &cobra.Command{
		Use:   "grid SYMBOL LOWER UPPER LEVELS QTY_PER_LEVEL",
		Short: "Lay a limit-order ladder across a price range",
		Long: `Buys are placed on ladder prices below the current price and sells above it.
With --monitor every fill is answered with an opposite order one ladder step
away; orders are left resting when monitoring ends.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, err := parseSymbol(args[0])
			if err != nil {
				return err
			}
			lower, err := parseFloat("lowerPrice", args[1])
			if err != nil {
				return err
			}
			upper, err := parseFloat("upperPrice", args[2])
			if err != nil {
				return err
			}
			levels, err := parseInt("levels", args[3])
			if err != nil {
				return err
			}
			qty, err := parseFloat("quantityPerLevel", args[4])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			g, err := strategy.NewGrid(ex, strategy.GridParams{
				Symbol: sym, LowerPrice: lower, UpperPrice: upper, Levels: levels, QuantityPerLevel: qty,
			}, a.cfg.Strategy.GridConfig(), a.deps())
			if err != nil {
				return err
			}
			if monitor {
				a.watchConfig(cmd.Context())
				defer a.notify(daemon.SdNotifyStopping)
			}
			res, err := g.Run(cmd.Context(), monitor, func(placed strategy.GridResult) {
				if monitor {
					a.notify(daemon.SdNotifyReady)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "grid placed %d orders around %s\n", placed.OrdersPlaced, fmtPrice(placed.CurrentPrice))
			})
			printGrid(cmd.OutOrStdout(), res)
			return err
		},
	}
	cmd.Flags().BoolVar(&monitor, "monitor", false, "keep re-balancing until interrupted")
	return cmd
}

func newTWAPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "twap SYMBOL SIDE TOTAL_QTY DURATION CHUNKS",
		Short: "Execute a quantity as equal market chunks spread over a duration",
		Long:  `DURATION accepts Go durations (90s, 15m, 1h30m) or a plain number of minutes.`,
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, side, err := sideArgs(args[0], args[1])
			if err != nil {
				return err
			}
			total, err := parseFloat("totalQuantity", args[2])
			if err != nil {
				return err
			}
			d, err := parseDuration("duration", args[3])
			if err != nil {
				return err
			}
			chunks, err := parseInt("chunks", args[4])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			a.watchConfig(cmd.Context())
			res, err := strategy.RunTWAP(cmd.Context(), ex, strategy.TWAPParams{
				Symbol: sym, Side: side, TotalQuantity: total, Duration: d, Chunks: chunks,
			}, a.cfg.Strategy.TWAPConfig(), a.deps())
			printTWAP(cmd.OutOrStdout(), res)
			return err
		},
	}
}

// notify 向 systemd 报告状态，不在 systemd 下运行时无操作。
func (a *app) notify(state string) {
	if sent, err := daemon.SdNotify(false, state); err != nil {
		a.log.Warn("systemd notify failed", zap.String("state", state), zap.Error(err))
	} else if sent {
		a.log.Debug("systemd notified", zap.String("state", state))
	}
}
