package order

import (
	"errors"
	"testing"
)

func TestBookSetGetList(t *testing.T) {
	b := NewBook()
	o := Order{ID: "1", Symbol: "BTCUSDT", Status: StatusNew}
	b.Set(o)
	got, ok := b.Get("1")
	if !ok || got.Symbol != "BTCUSDT" {
		t.Fatalf("get failed: %+v %v", got, ok)
	}
	list := b.List()
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}
}

func TestBookUpdateGuardsTransitions(t *testing.T) {
	b := NewBook()
	b.Set(Order{ID: "2", Status: StatusNew})
	b.Set(Order{ID: "1", Status: StatusNew})

	if _, err := b.Update("1", func(o *Order) { o.Status = StatusFilled }); err != nil {
		t.Fatalf("fill should be legal: %v", err)
	}
	if _, err := b.Update("1", func(o *Order) { o.Status = StatusCanceled }); err == nil {
		t.Fatalf("cancel after fill should be rejected")
	}
	got, _ := b.Get("1")
	if got.Status != StatusFilled {
		t.Fatalf("rejected update must not be applied, got %s", got.Status)
	}
	if _, err := b.Update("404", func(o *Order) {}); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected unknown order, got %v", err)
	}

	active := b.Active()
	if len(active) != 1 || active[0].ID != "2" {
		t.Fatalf("unexpected active orders: %+v", active)
	}
}
