package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"futures-algo-go/gateway"
	"futures-algo-go/order"
	"futures-algo-go/strategy"
)

type bulkCanceller interface {
	CancelAllOrders(ctx context.Context, symbol string) error
}

func asBulkCanceller(ex strategy.Exchange) (bulkCanceller, bool) {
	if s, ok := ex.(*gateway.StreamPricedExchange); ok {
		bc, ok := s.OrderGateway.(bulkCanceller)
		return bc, ok
	}
	bc, ok := ex.(bulkCanceller)
	return bc, ok
}

func newCancelAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-all SYMBOL",
		Short: "Cancel every open order on a symbol (e.g. resting grid levels)",
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
			bc, ok := asBulkCanceller(ex)
			if !ok {
				return fmt.Errorf("gateway does not support cancel-all")
			}
			if err := bc.CancelAllOrders(cmd.Context(), sym); err != nil {
				return err
			}
			a.log.LogStrategy("maintenance", "cancel_all", map[string]interface{}{"symbol": sym})
			fmt.Fprintf(cmd.OutOrStdout(), "all open %s orders cancelled\n", sym)
			return nil
		},
	}
}

func newSymbolsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols SYMBOL...",
		Short: "Fetch tick/step/notional filters and print them as a config snippet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syms := make([]string, 0, len(args))
			for _, s := range args {
				sym, err := parseSymbol(s)
				if err != nil {
					return err
				}
				syms = append(syms, sym)
			}
			rest, _ := gateway.BuildBinanceClients(a.cfg.ClientOptions(), a.log)
			infos, err := rest.ExchangeInfo(cmd.Context(), syms...)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return fmt.Errorf("no exchange info for %v", syms)
			}
			snippet := map[string]map[string]order.SymbolConstraints{"symbols": {}}
			for _, info := range infos {
				if info.Status != "TRADING" {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s status is %s\n", info.Symbol, info.Status)
				}
				snippet["symbols"][info.Symbol] = info.Constraints()
			}
			raw, err := yaml.Marshal(snippet)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}
