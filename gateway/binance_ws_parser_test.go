package gateway

import "testing"

func TestParseMarkPriceCombined(t *testing.T) {
	raw := []byte(`{
		"stream":"btcusdt@markPrice@1s",
		"data":{"e":"markPriceUpdate","E":1562305380000,"s":"BTCUSDT","p":"11794.15000000","i":"11784.62659091","r":"0.00038167","T":1562306400000}
	}`)
	sym, px, at, err := ParseMarkPrice(raw)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if sym != "BTCUSDT" || px != 11794.15 {
		t.Fatalf("unexpected parse result: %s %.3f", sym, px)
	}
	if at.UnixMilli() != 1562305380000 {
		t.Fatalf("unexpected event time %v", at)
	}
}

func TestParseMarkPriceRaw(t *testing.T) {
	sym, px, _, err := ParseMarkPrice([]byte(`{"e":"markPriceUpdate","E":1,"s":"ETHUSDT","p":"2000.5"}`))
	if err != nil || sym != "ETHUSDT" || px != 2000.5 {
		t.Fatalf("unexpected: %s %v %v", sym, px, err)
	}
}

func TestParseMarkPriceRejectsOtherEvents(t *testing.T) {
	if _, _, _, err := ParseMarkPrice([]byte(`{"stream":"x","data":{"e":"depthUpdate","s":"BTCUSDT"}}`)); err == nil {
		t.Fatalf("expected error for non mark price event")
	}
	if _, _, _, err := ParseMarkPrice([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
