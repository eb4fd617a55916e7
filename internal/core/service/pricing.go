package service

import (
	"github.com/shopspring/decimal"

	"github.com/lhchen/storefront/internal/core/domain"
)

var (
	freeShippingThreshold = decimal.NewFromInt(99)
	flatShippingFee       = decimal.NewFromInt(10)

	// referenceMarkup stands in for a real "was" price when a line carries
	// none. Caller-supplied reference prices always win over it.
	referenceMarkup = decimal.NewFromFloat(1.2)
)

// PricingEngine computes totals from the cart lines, the selection and the
// active coupon. It is a pure function of its inputs: no persistence, no
// hidden state.
type PricingEngine struct{}

func (PricingEngine) Compute(items []domain.LineItem, selected map[domain.VariantKey]bool, coupon *domain.Coupon) domain.Totals {
	t := domain.Totals{
		Subtotal:       decimal.Zero,
		ShippingFee:    decimal.Zero,
		CouponDiscount: decimal.Zero,
		Total:          decimal.Zero,
		Savings:        decimal.Zero,
	}

	for _, li := range items {
		if !selected[li.Key()] {
			continue
		}
		qty := decimal.NewFromInt(int64(li.Quantity))
		t.Subtotal = t.Subtotal.Add(li.UnitPrice.Mul(qty))

		ref := li.ReferencePrice
		if ref.IsZero() {
			ref = li.UnitPrice.Mul(referenceMarkup)
		}
		t.Savings = t.Savings.Add(ref.Sub(li.UnitPrice).Mul(qty))

		t.SelectedLines++
		t.SelectedQuantity += li.Quantity
	}

	if t.Subtotal.LessThan(freeShippingThreshold) {
		t.ShippingFee = flatShippingFee
	}

	if coupon != nil && t.Subtotal.GreaterThanOrEqual(coupon.MinimumSpend) {
		t.CouponDiscount = coupon.Amount
	}

	t.Total = t.Subtotal.Add(t.ShippingFee).Sub(t.CouponDiscount)
	if t.Total.IsNegative() {
		t.Total = decimal.Zero
	}

	return t
}
