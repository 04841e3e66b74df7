package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolConstraintsValidate(t *testing.T) {
	c := SymbolConstraints{
		TickSize:    0.01,
		StepSize:    0.001,
		MinQty:      0.001,
		MaxQty:      10,
		MinNotional: 5,
	}
	if err := c.Validate(100.01, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Validate(100.015, 0.002); err == nil {
		t.Fatalf("expected tick size error")
	}
	if err := c.Validate(100.01, 0.0005); err == nil {
		t.Fatalf("expected qty error")
	}
	if err := c.Validate(100.01, 11); err == nil {
		t.Fatalf("expected max qty error")
	}
	if err := c.Validate(10, 0.2); err == nil {
		t.Fatalf("expected notional error")
	}
	if err := c.Validate(0, 0.2); err != nil {
		t.Fatalf("market qty should pass without price: %v", err)
	}
	if err := c.Validate(10, 0.2); !errors.Is(err, ErrValidation) {
		t.Fatalf("constraint errors should be validation errors: %v", err)
	}
}

func TestConstraintsRounding(t *testing.T) {
	c := DefaultConstraints["BTCUSDT"]
	assert.Equal(t, 133.33, c.RoundPrice(133.3333333))
	assert.Equal(t, 166.67, c.RoundPrice(166.6666667))
	assert.Equal(t, 0.123, c.FloorQty(0.12399))
	assert.Equal(t, int32(2), c.PriceDecimals())
	assert.Equal(t, int32(3), c.QtyDecimals())

	doge := DefaultConstraints["DOGEUSDT"]
	assert.Equal(t, int32(5), doge.PriceDecimals())
	assert.Equal(t, int32(0), doge.QtyDecimals())
	assert.Equal(t, 12.0, doge.FloorQty(12.9))

	assert.Equal(t, int32(-1), SymbolConstraints{}.PriceDecimals())
	assert.Equal(t, 1.2345, SymbolConstraints{}.RoundPrice(1.2345))
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "65000.50", FormatDecimal(65000.5, 2))
	assert.Equal(t, "0.2", FormatDecimal(0.2, -1))
	assert.Equal(t, "3", FormatDecimal(3, 0))
}
