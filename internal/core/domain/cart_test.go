package domain

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func item(id, color, storage string, qty int) LineItem {
	return LineItem{
		ProductID: id,
		Name:      "item " + id,
		UnitPrice: decimal.NewFromInt(100),
		Color:     color,
		Storage:   storage,
		Quantity:  qty,
		AddedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestClampQuantity(t *testing.T) {
	cases := []struct{ in, want int }{
		{-5, 1},
		{0, 1},
		{1, 1},
		{50, 50},
		{99, 99},
		{100, 99},
		{1000, 99},
	}
	for _, c := range cases {
		if got := ClampQuantity(c.in); got != c.want {
			t.Errorf("ClampQuantity(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestKeyTreatsMissingVariantsAsEmpty(t *testing.T) {
	a := item("1", "", "", 1)
	b := item("1", "", "", 2)
	if a.Key() != b.Key() {
		t.Error("expected equal keys for same product without variants")
	}

	c := item("1", "black", "", 1)
	if a.Key() == c.Key() {
		t.Error("expected different keys when color differs")
	}
}

func TestTotalItemCount(t *testing.T) {
	cart := Cart{item("1", "", "", 2), item("2", "", "", 3)}
	if got := cart.TotalItemCount(); got != 5 {
		t.Errorf("expected total 5, got %d", got)
	}

	if got := (Cart{}).TotalItemCount(); got != 0 {
		t.Errorf("expected 0 for empty cart, got %d", got)
	}
}

func TestNormalizeMergesDuplicates(t *testing.T) {
	cart := Cart{
		item("1", "black", "256GB", 2),
		item("2", "", "", 1),
		item("1", "black", "256GB", 3),
		item("1", "black", "256GB", 1),
	}

	norm := cart.Normalize()
	if len(norm) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(norm))
	}
	if norm[0].Quantity != 6 {
		t.Errorf("expected merged quantity 6, got %d", norm[0].Quantity)
	}
	if norm[1].ProductID != "2" {
		t.Errorf("expected line order preserved, got %s first", norm[1].ProductID)
	}
}

func TestNormalizeClampsMergedQuantity(t *testing.T) {
	cart := Cart{
		item("1", "", "", 60),
		item("1", "", "", 60),
	}
	norm := cart.Normalize()
	if len(norm) != 1 || norm[0].Quantity != MaxQuantity {
		t.Errorf("expected single line clamped to %d, got %+v", MaxQuantity, norm)
	}
}

func TestCartJSONRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 50} {
		cart := make(Cart, 0, n)
		for i := 0; i < n; i++ {
			li := item(fmt.Sprintf("%d", i), "black", "128GB", i%MaxQuantity+1)
			li.UnitPrice = decimal.NewFromFloat(19.99).Mul(decimal.NewFromInt(int64(i + 1)))
			cart = append(cart, li)
		}

		raw, err := json.Marshal(cart)
		if err != nil {
			t.Fatalf("n=%d: marshal: %v", n, err)
		}
		var back Cart
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("n=%d: unmarshal: %v", n, err)
		}

		if len(back) != len(cart) {
			t.Fatalf("n=%d: expected %d lines, got %d", n, len(cart), len(back))
		}
		for i := range cart {
			if back[i].Key() != cart[i].Key() {
				t.Errorf("n=%d line %d: key mismatch", n, i)
			}
			if back[i].Quantity != cart[i].Quantity {
				t.Errorf("n=%d line %d: quantity mismatch", n, i)
			}
			if !back[i].UnitPrice.Equal(cart[i].UnitPrice) {
				t.Errorf("n=%d line %d: price mismatch", n, i)
			}
		}
	}
}
