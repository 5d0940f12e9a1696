package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidStatus    = errors.New("invalid order status")
)

type OrderLine struct {
	ListingID string
	Quantity  int
}

type OrderService struct {
	listings   port.ListingRepository
	orders     port.OrderRepository
	cache      port.CacheRepository
	orderQueue chan domain.Order
	now        func() time.Time
}

func NewOrderService(listings port.ListingRepository, orders port.OrderRepository, cache port.CacheRepository, queueSize int) *OrderService {
	return &OrderService{
		listings:   listings,
		orders:     orders,
		cache:      cache,
		orderQueue: make(chan domain.Order, queueSize),
		now:        time.Now,
	}
}

// Place accepts an order: the idempotency key blocks duplicate submissions,
// the cached quantity gate rejects oversells on the hot path, and the order
// is queued for persistence by the worker pool. Unit prices are snapshotted
// from the listing at this moment; later edits do not change the order.
func (s *OrderService) Place(ctx context.Context, requestID, userID string, lines []OrderLine) (*domain.Order, error) {
	if requestID == "" || userID == "" || len(lines) == 0 {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}

	idempotencyKey := "order:" + requestID
	ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return nil, ErrDuplicateRequest
	}

	now := s.now()
	order := domain.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Decrement the cached quantities first; roll back the ones already
	// taken if any line fails.
	var taken []OrderLine
	rollback := func() {
		for _, line := range taken {
			if err := s.cache.IncrementQuantity(ctx, line.ListingID, line.Quantity); err != nil {
				// Left for the quantity mirror on next listing edit.
				continue
			}
		}
	}

	for _, line := range lines {
		listing, err := s.listings.GetListing(ctx, line.ListingID)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("get listing: %w", err)
		}
		if listing == nil || !listing.Available(now) {
			rollback()
			return nil, ErrListingNotFound
		}

		ok, err := s.cache.DecrementQuantity(ctx, line.ListingID, line.Quantity)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("quantity decrement failed: %w", err)
		}
		if !ok {
			rollback()
			return nil, port.ErrInsufficientQuantity
		}
		taken = append(taken, line)

		itemTotal := listing.PriceCents * int64(line.Quantity)
		order.Items = append(order.Items, domain.OrderItem{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			ListingID:      line.ListingID,
			Quantity:       line.Quantity,
			UnitPriceCents: listing.PriceCents,
			TotalCents:     itemTotal,
		})
		order.TotalAmountCents += itemTotal
	}

	s.orderQueue <- order

	return &order, nil
}

// Cancel moves an order to cancelled and restores quantities in both stores.
func (s *OrderService) Cancel(ctx context.Context, orderID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	if err := s.orders.CancelOrder(ctx, orderID); err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := s.cache.IncrementQuantity(ctx, item.ListingID, item.Quantity); err != nil {
			return fmt.Errorf("restore cached quantity: %w", err)
		}
	}
	return nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) error {
	if !domain.ValidOrderStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	to := domain.OrderStatus(status)
	if to == domain.OrderStatusCancelled {
		return s.Cancel(ctx, orderID)
	}
	return s.orders.UpdateOrderStatus(ctx, orderID, to)
}

func (s *OrderService) GetOrderQueue() <-chan domain.Order {
	return s.orderQueue
}

func (s *OrderService) Close() {
	close(s.orderQueue)
}
