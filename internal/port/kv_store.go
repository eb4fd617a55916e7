package port

import "context"

// KVStore is the replace-on-write persistence behind the cart, favorites,
// coupon and selections entries. It is the only state shared between views;
// the last writer wins.
type KVStore interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// SetIdempotency marks a key for duplicate detection, returns false if it
	// was already set.
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
