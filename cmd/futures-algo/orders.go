package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"futures-algo-go/order"
	"futures-algo-go/strategy"
)

func newMarketCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "market SYMBOL SIDE QTY",
		Short: "Place a market order",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, side, err := sideArgs(args[0], args[1])
			if err != nil {
				return err
			}
			qty, err := parseFloat("quantity", args[2])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			o, err := strategy.PlaceMarket(cmd.Context(), ex, sym, side, qty, a.deps())
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
}

func newLimitCmd(a *app) *cobra.Command {
	var tif string
	var reduceOnly bool
	cmd := &cobra.Command{
		Use:   "limit SYMBOL SIDE QTY PRICE",
		Short: "Place a limit order",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, side, err := sideArgs(args[0], args[1])
			if err != nil {
				return err
			}
			qty, err := parseFloat("quantity", args[2])
			if err != nil {
				return err
			}
			price, err := parseFloat("price", args[3])
			if err != nil {
				return err
			}
			t, err := order.ParseTimeInForce(tif)
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			req := order.LimitRequest{
				Base:        order.Base{Symbol: sym, Side: side, Quantity: qty, ReduceOnly: reduceOnly},
				Price:       price,
				TimeInForce: t,
			}
			o, err := strategy.PlaceLimit(cmd.Context(), ex, req, a.cfg.Strategy.LimitConfig(), a.deps())
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
	cmd.Flags().StringVar(&tif, "tif", "GTC", "time in force: GTC, IOC or FOK")
	cmd.Flags().BoolVar(&reduceOnly, "reduce-only", false, "only reduce an existing position")
	return cmd
}

func newStopLimitCmd(a *app) *cobra.Command {
	var tif string
	var reduceOnly bool
	cmd := &cobra.Command{
		Use:   "stop-limit SYMBOL SIDE QTY STOP_PRICE LIMIT_PRICE",
		Short: "Place a stop-limit order",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, side, err := sideArgs(args[0], args[1])
			if err != nil {
				return err
			}
			qty, err := parseFloat("quantity", args[2])
			if err != nil {
				return err
			}
			stop, err := parseFloat("stopPrice", args[3])
			if err != nil {
				return err
			}
			limit, err := parseFloat("price", args[4])
			if err != nil {
				return err
			}
			t, err := order.ParseTimeInForce(tif)
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			req := order.StopLimitRequest{
				Base:        order.Base{Symbol: sym, Side: side, Quantity: qty, ReduceOnly: reduceOnly},
				Price:       limit,
				StopPrice:   stop,
				TimeInForce: t,
			}
			o, err := strategy.PlaceStopLimit(cmd.Context(), ex, req, a.deps())
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
	cmd.Flags().StringVar(&tif, "tif", "GTC", "time in force: GTC, IOC or FOK")
	cmd.Flags().BoolVar(&reduceOnly, "reduce-only", false, "only reduce an existing position")
	return cmd
}

func newPriceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price SYMBOL",
		Short: "Show the current price",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, err := parseSymbol(args[0])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			px, err := ex.CurrentPrice(cmd.Context(), sym)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", sym, fmtPrice(px))
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status SYMBOL ORDER_ID",
		Short: "Show an order's exchange status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, err := parseSymbol(args[0])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			o, err := ex.GetOrder(cmd.Context(), sym, args[1])
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), o)
			return nil
		},
	}
}

func newCancelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel SYMBOL ORDER_ID",
		Short: "Cancel an open order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sym, err := parseSymbol(args[0])
			if err != nil {
				return err
			}
			ex, err := a.exchange(cmd.Context(), sym)
			if err != nil {
				return err
			}
			o, err := ex.CancelOrder(cmd.Context(), sym, args[1])
			if err != nil {
				return err
			}
			printOrder(cmd.OutOrStdout(), o)
			return nil
		},
	}
}
