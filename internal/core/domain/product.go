package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is catalog display data, cached onto a LineItem at add time and
// never re-fetched afterwards.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Price          decimal.Decimal `json:"price"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	ImageRef       string          `json:"image_ref"`
	Rating         float64         `json:"rating"`
	ReviewCount    int             `json:"review_count"`
	Colors         []string        `json:"colors,omitempty"`
	Storages       []string        `json:"storages,omitempty"`
	Badge          string          `json:"badge,omitempty"`
	InStock        bool            `json:"in_stock"`
}

type Review struct {
	Author    string    `json:"author"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
