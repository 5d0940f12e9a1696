package service

import (
	"context"
	"sync"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/listingquery"
	"github.com/rebite/rebite/internal/port"
)

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	quantities     map[string]int
	idempotencySet map[string]bool
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		quantities:     make(map[string]int),
		idempotencySet: make(map[string]bool),
	}
}

func (m *mockCacheRepo) DecrementQuantity(ctx context.Context, listingID string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.quantities[listingID]
	if !ok || current < quantity {
		return false, nil
	}
	m.quantities[listingID] = current - quantity
	return true, nil
}

func (m *mockCacheRepo) IncrementQuantity(ctx context.Context, listingID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantities[listingID] += quantity
	return nil
}

func (m *mockCacheRepo) SetQuantity(ctx context.Context, listingID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantities[listingID] = quantity
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) quantity(listingID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.quantities[listingID]
}

// Mock ListingRepository
type mockListingRepo struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
	searched []listingquery.Filters
}

func newMockListingRepo() *mockListingRepo {
	return &mockListingRepo{listings: make(map[string]domain.Listing)}
}

func (m *mockListingRepo) CreateListing(ctx context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *mockListingRepo) UpdateListing(ctx context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
	return nil
}

func (m *mockListingRepo) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (m *mockListingRepo) SearchListings(ctx context.Context, filters listingquery.Filters) (*listingquery.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searched = append(m.searched, filters)
	return &listingquery.Page{Items: []domain.Listing{}, Page: filters.Page, Limit: filters.Limit}, nil
}

func (m *mockListingRepo) DeactivateListing(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil
	}
	l.IsActive = false
	m.listings[id] = l
	return nil
}

// Mock OrderRepository
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]domain.Order)}
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(ctx context.Context, id string, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if !domain.CanTransition(o.Status, to) {
		return port.ErrInvalidTransition
	}
	o.Status = to
	m.orders[id] = o
	return nil
}

func (m *mockOrderRepo) CancelOrder(ctx context.Context, id string) error {
	return m.UpdateOrderStatus(ctx, id, domain.OrderStatusCancelled)
}

// Mock PointsRepository. Spends enforce the conditional check-and-decrement
// under one lock, matching the database semantics the adapter provides.
type mockPointsRepo struct {
	mu           sync.Mutex
	balances     map[string]int64
	transactions []domain.PointsTransaction
	donations    []domain.Donation
	charities    map[string]domain.Charity
}

func newMockPointsRepo() *mockPointsRepo {
	return &mockPointsRepo{
		balances:  make(map[string]int64),
		charities: make(map[string]domain.Charity),
	}
}

func (m *mockPointsRepo) AppendEarn(ctx context.Context, tx domain.PointsTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.earnLocked(tx)
}

func (m *mockPointsRepo) AppendSpend(ctx context.Context, tx domain.PointsTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spendLocked(tx)
}

func (m *mockPointsRepo) Transfer(ctx context.Context, spend, earn domain.PointsTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.spendLocked(spend); err != nil {
		return err
	}
	return m.earnLocked(earn)
}

func (m *mockPointsRepo) Donate(ctx context.Context, spend domain.PointsTransaction, donation domain.Donation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.spendLocked(spend); err != nil {
		return err
	}
	m.donations = append(m.donations, donation)
	return nil
}

func (m *mockPointsRepo) earnLocked(tx domain.PointsTransaction) error {
	if _, ok := m.balances[tx.UserID]; !ok {
		return ErrProfileNotFound
	}
	m.balances[tx.UserID] += tx.Amount
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *mockPointsRepo) spendLocked(tx domain.PointsTransaction) error {
	balance, ok := m.balances[tx.UserID]
	if !ok {
		return ErrProfileNotFound
	}
	if balance < -tx.Amount {
		return port.ErrInsufficientBalance
	}
	m.balances[tx.UserID] = balance + tx.Amount
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *mockPointsRepo) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Profile{UserID: userID, TotalPoints: balance}, nil
}

func (m *mockPointsRepo) GetCharity(ctx context.Context, id string) (*domain.Charity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.charities[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockPointsRepo) SumTransactions(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			sum += tx.Amount
		}
	}
	return sum, nil
}

func (m *mockPointsRepo) balance(userID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}
