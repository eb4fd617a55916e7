package port

import (
	"context"

	"github.com/lhchen/storefront/internal/core/domain"
)

// EventBus propagates store mutations to every other open view so they can
// recompute derived state without polling.
type EventBus interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error

	// Subscribe returns a channel of change events and a cancel function that
	// releases the subscription and closes the channel.
	Subscribe(ctx context.Context) (<-chan domain.ChangeEvent, func(), error)
}
