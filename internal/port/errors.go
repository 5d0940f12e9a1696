package port

import "errors"

// Sentinel errors surfaced by repository implementations. They cross the
// port boundary so services and handlers can match them without importing
// an adapter.
var (
	// ErrInsufficientBalance: a conditional balance decrement matched no row.
	ErrInsufficientBalance = errors.New("insufficient points balance")

	// ErrInsufficientQuantity: a listing quantity decrement would go negative.
	ErrInsufficientQuantity = errors.New("insufficient listing quantity")

	// ErrConflict: a lost update detected by a conditional update affecting
	// zero rows; the caller may retry.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrInvalidTransition: an order status move outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid order status transition")
)
