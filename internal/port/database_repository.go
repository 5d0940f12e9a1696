package port

import (
	"context"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/listingquery"
)

type ListingRepository interface {
	// CreateListing persists a new listing.
	CreateListing(ctx context.Context, listing domain.Listing) error

	// UpdateListing rewrites a listing's mutable fields, including its
	// recomputed rescue score.
	UpdateListing(ctx context.Context, listing domain.Listing) error

	// GetListing retrieves a listing by ID, nil when absent.
	GetListing(ctx context.Context, id string) (*domain.Listing, error)

	// SearchListings runs compiled filters and returns one page plus the
	// total over the full filtered set.
	SearchListings(ctx context.Context, filters listingquery.Filters) (*listingquery.Page, error)

	// DeactivateListing marks a listing inactive.
	DeactivateListing(ctx context.Context, id string) error
}

type OrderRepository interface {
	// CreateOrder persists an order and its items and decrements each
	// listing quantity with a conditional update; insufficient quantity
	// fails the whole transaction.
	CreateOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an order with its items, nil when absent.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrderStatus moves an order along its lifecycle; the transition
	// is checked against the current stored status.
	UpdateOrderStatus(ctx context.Context, id string, to domain.OrderStatus) error

	// CancelOrder cancels an order and restores listing quantities.
	CancelOrder(ctx context.Context, id string) error
}

type PointsRepository interface {
	// AppendEarn inserts a positive ledger row and increments the balance
	// in one transaction.
	AppendEarn(ctx context.Context, tx domain.PointsTransaction) error

	// AppendSpend inserts a negative ledger row after a conditional
	// balance decrement; fails without effect when the balance is too low.
	AppendSpend(ctx context.Context, tx domain.PointsTransaction) error

	// Transfer composes a spend on the sender and an earn on the recipient
	// atomically.
	Transfer(ctx context.Context, spend, earn domain.PointsTransaction) error

	// Donate composes a spend with an immutable donation record.
	Donate(ctx context.Context, spend domain.PointsTransaction, donation domain.Donation) error

	// GetProfile retrieves a user's profile, nil when absent.
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)

	// GetCharity retrieves a charity, nil when absent.
	GetCharity(ctx context.Context, id string) (*domain.Charity, error)

	// SumTransactions recomputes the ledger sum for reconciliation checks.
	SumTransactions(ctx context.Context, userID string) (int64, error)
}
