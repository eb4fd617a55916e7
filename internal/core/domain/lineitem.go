package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// VariantKey identifies a cart line. Two additions with equal keys merge into
// a single line. Absent variant axes are stored as the empty string, so the
// key is comparable and usable directly as a map key.
type VariantKey struct {
	ProductID string
	Color     string
	Storage   string
}

// String renders the key for the best-effort selections snapshot. It is only
// ever compared against strings produced the same way, never parsed back.
func (k VariantKey) String() string {
	return k.ProductID + "|" + k.Color + "|" + k.Storage
}

type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	// ReferencePrice is the display-only "was" price. Zero means the catalog
	// gave none and pricing falls back to a default markup.
	ReferencePrice decimal.Decimal `json:"reference_price"`
	ImageRef       string          `json:"image_ref,omitempty"`
	Color          string          `json:"color,omitempty"`
	Storage        string          `json:"storage,omitempty"`
	Quantity       int             `json:"quantity"`
	AddedAt        time.Time       `json:"added_at"`
}

func (li LineItem) Key() VariantKey {
	return VariantKey{ProductID: li.ProductID, Color: li.Color, Storage: li.Storage}
}

// ClampQuantity bounds q to the storable range [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
