package domain

import "github.com/shopspring/decimal"

// DefaultMinimumSpend applies when a coupon amount was restored from storage
// without its eligibility minimum (the persisted form carries the amount only).
var DefaultMinimumSpend = decimal.NewFromInt(100)

// Coupon is the single active discount. Applying a new coupon replaces any
// previous one; there is no expiry.
type Coupon struct {
	Amount       decimal.Decimal `json:"amount"`
	MinimumSpend decimal.Decimal `json:"minimum_spend"`
}
