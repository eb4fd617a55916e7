package port

import (
	"context"

	"github.com/lhchen/storefront/internal/core/domain"
)

// OrderArchive durably records completed checkouts.
type OrderArchive interface {
	SaveOrder(ctx context.Context, order domain.Order) error
}
