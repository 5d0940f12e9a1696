package port

import "context"

type CacheRepository interface {
	// DecrementQuantity atomically decreases a listing's cached quantity,
	// returns false if insufficient
	DecrementQuantity(ctx context.Context, listingID string, quantity int) (bool, error)

	// IncrementQuantity restores quantity (for rollback and cancellation)
	IncrementQuantity(ctx context.Context, listingID string, quantity int) error

	// SetQuantity mirrors a listing's quantity into the cache
	SetQuantity(ctx context.Context, listingID string, quantity int) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
