package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"futures-algo-go/order"
	"futures-algo-go/strategy"
)

func printOrder(w io.Writer, o order.Order) {
	fmt.Fprintf(w, "order %s %s %s %s qty=%g filled=%g price=%s stop=%s avg=%s status=%s\n",
		o.ID, o.Symbol, o.Side, o.Type, o.Quantity, o.ExecutedQty,
		fmtPrice(o.Price), fmtPrice(o.StopPrice), fmtPrice(o.AvgPrice), o.Status)
}

// printStatus 订单详情加状态说明。
func printStatus(w io.Writer, o order.Order) {
	printOrder(w, o)
	fmt.Fprintf(w, "%s\n", order.GetStateDescription(o.Status))
}

func printOCO(w io.Writer, r strategy.OCOResult) {
	fmt.Fprintf(w, "oco %s outcome=%s state=%s take_profit=%s stop_loss=%s\n",
		r.Symbol, r.Outcome, r.State, orDash(r.TakeProfitOrderID), orDash(r.StopLossOrderID))
	if r.Filled != "" {
		fmt.Fprintf(w, "filled=%s cancelled=%s sibling=%s avg=%s\n", r.Filled, orDash(string(r.Cancelled)),
			orDash(string(r.SiblingStatus)), fmtPrice(r.FilledOrder.AvgPrice))
	}
}

func printGrid(w io.Writer, r strategy.GridResult) {
	fmt.Fprintf(w, "grid %s outcome=%s state=%s step=%g price=%s placed=%d fills=%d retired=%d open=%d\n",
		r.Symbol, r.Outcome, r.State, r.Step, fmtPrice(r.CurrentPrice),
		r.OrdersPlaced, len(r.Fills), len(r.Retired), len(r.OpenLevels))
	if len(r.OpenLevels) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tPRICE\tSIDE\tQTY\tORDER")
	for _, lv := range r.OpenLevels {
		fmt.Fprintf(tw, "%d\t%g\t%s\t%g\t%s\n", lv.Index, lv.Price, lv.Side, lv.Quantity, lv.OrderID)
	}
	_ = tw.Flush()
}

func printTWAP(w io.Writer, r strategy.TWAPResult) {
	fmt.Fprintf(w, "twap %s %s outcome=%s executed=%g/%g chunks=%d/%d avg=%s interval=%s\n",
		r.Symbol, r.Side, r.Outcome, r.TotalExecuted, r.TotalQuantity,
		r.ChunksCompleted, len(r.Chunks), fmtPrice(r.AveragePrice), r.Interval)
	for _, c := range r.Chunks {
		line := fmt.Sprintf("  #%d %s qty=%g filled=%g avg=%s", c.Index, c.Outcome, c.Quantity, c.FilledQty, fmtPrice(c.AvgPrice))
		if c.Err != nil {
			line += " err=" + c.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
