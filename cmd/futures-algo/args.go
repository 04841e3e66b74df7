package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"futures-algo-go/order"
)

func parseSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	return sym, order.ValidateSymbol(sym)
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, order.Invalid(name, s, "not a number")
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, order.Invalid(name, s, "not an integer")
	}
	return v, nil
}

// parseDuration 接受 Go 时长（90s、10m）或纯数字分钟数。
func parseDuration(name, s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if m, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(m * float64(time.Minute)), nil
	}
	return 0, order.Invalid(name, s, "not a duration")
}

func sideArgs(symbol, side string) (string, order.Side, error) {
	sym, err := parseSymbol(symbol)
	if err != nil {
		return "", "", err
	}
	sd, err := order.ParseSide(side)
	if err != nil {
		return "", "", err
	}
	return sym, sd, nil
}

func fmtPrice(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%g", v)
}
