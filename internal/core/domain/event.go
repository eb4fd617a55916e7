package domain

import (
	"encoding/json"
	"time"
)

const (
	StoreCart      = "cart"
	StoreFavorites = "favorites"
	StoreCoupon    = "coupon"
)

// ChangeEvent announces a mutation of one of the persisted stores to every
// other open view. Snapshot may be nil or stale; subscribers recompute their
// derived state from the store itself, never from the payload.
type ChangeEvent struct {
	Store    string          `json:"store"`
	ViewID   string          `json:"view_id"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
	At       time.Time       `json:"at"`
}
