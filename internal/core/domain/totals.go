package domain

import "github.com/shopspring/decimal"

// Totals is the pricing result over the selected cart lines.
type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	Total          decimal.Decimal `json:"total"`
	Savings        decimal.Decimal `json:"savings"`

	SelectedLines    int `json:"selected_lines"`
	SelectedQuantity int `json:"selected_quantity"`
}
