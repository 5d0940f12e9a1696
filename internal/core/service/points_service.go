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
	ErrProfileNotFound   = errors.New("profile not found")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrCharityNotFound   = errors.New("charity not found")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
)

// PointsService fronts the append-only ledger. Every operation writes one or
// two signed transaction rows and their balance effect atomically; the
// balance column is a cache of the ledger, never the other way around.
type PointsService struct {
	points port.PointsRepository
	cache  port.CacheRepository
	now    func() time.Time
}

func NewPointsService(points port.PointsRepository, cache port.CacheRepository) *PointsService {
	return &PointsService{
		points: points,
		cache:  cache,
		now:    time.Now,
	}
}

func (s *PointsService) Earn(ctx context.Context, userID string, amount int64, reason string) (*domain.PointsTransaction, error) {
	if err := s.checkProfile(ctx, userID, amount); err != nil {
		return nil, err
	}

	tx := domain.PointsTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        domain.TransactionEarn,
		Amount:      amount,
		Description: reason,
		CreatedAt:   s.now(),
	}
	if err := s.points.AppendEarn(ctx, tx); err != nil {
		return nil, fmt.Errorf("append earn: %w", err)
	}
	return &tx, nil
}

func (s *PointsService) Spend(ctx context.Context, userID string, amount int64, reason string) (*domain.PointsTransaction, error) {
	if err := s.checkProfile(ctx, userID, amount); err != nil {
		return nil, err
	}

	tx := domain.PointsTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        domain.TransactionSpend,
		Amount:      -amount,
		Description: reason,
		CreatedAt:   s.now(),
	}
	if err := s.points.AppendSpend(ctx, tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Transfer spends on the sender and earns on the recipient in one database
// transaction; an insufficient sender balance leaves both sides untouched.
func (s *PointsService) Transfer(ctx context.Context, requestID, fromUserID, toUserID string, amount int64, reason string) error {
	if fromUserID == toUserID {
		return ErrSelfTransfer
	}
	if err := s.checkProfile(ctx, fromUserID, amount); err != nil {
		return err
	}

	recipient, err := s.points.GetProfile(ctx, toUserID)
	if err != nil {
		return fmt.Errorf("get recipient profile: %w", err)
	}
	if recipient == nil {
		return ErrRecipientNotFound
	}

	if err := s.checkIdempotency(ctx, "transfer:"+requestID); err != nil {
		return err
	}

	now := s.now()
	spend := domain.PointsTransaction{
		ID:          uuid.New().String(),
		UserID:      fromUserID,
		Type:        domain.TransactionTransfer,
		Amount:      -amount,
		Description: reason,
		CreatedAt:   now,
	}
	earn := domain.PointsTransaction{
		ID:          uuid.New().String(),
		UserID:      toUserID,
		Type:        domain.TransactionTransfer,
		Amount:      amount,
		Description: reason,
		CreatedAt:   now,
	}
	return s.points.Transfer(ctx, spend, earn)
}

func (s *PointsService) Donate(ctx context.Context, requestID, userID, charityID string, amount int64) error {
	if err := s.checkProfile(ctx, userID, amount); err != nil {
		return err
	}

	charity, err := s.points.GetCharity(ctx, charityID)
	if err != nil {
		return fmt.Errorf("get charity: %w", err)
	}
	if charity == nil {
		return ErrCharityNotFound
	}

	if err := s.checkIdempotency(ctx, "donate:"+requestID); err != nil {
		return err
	}

	now := s.now()
	spend := domain.PointsTransaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        domain.TransactionDonate,
		Amount:      -amount,
		Description: "donation to " + charity.Name,
		CreatedAt:   now,
	}
	donation := domain.Donation{
		ID:        uuid.New().String(),
		UserID:    userID,
		CharityID: charityID,
		Amount:    amount,
		CreatedAt: now,
	}
	return s.points.Donate(ctx, spend, donation)
}

func (s *PointsService) Balance(ctx context.Context, userID string) (int64, error) {
	profile, err := s.points.GetProfile(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return 0, ErrProfileNotFound
	}
	return profile.TotalPoints, nil
}

// Reconcile compares the materialized balance against the ledger sum. Meant
// for a background consistency check, not the request path.
func (s *PointsService) Reconcile(ctx context.Context, userID string) (balance, ledgerSum int64, err error) {
	profile, err := s.points.GetProfile(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return 0, 0, ErrProfileNotFound
	}

	sum, err := s.points.SumTransactions(ctx, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("sum transactions: %w", err)
	}
	return profile.TotalPoints, sum, nil
}

func (s *PointsService) checkProfile(ctx context.Context, userID string, amount int64) error {
	if userID == "" {
		return fmt.Errorf("%w: missing user", ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	profile, err := s.points.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return ErrProfileNotFound
	}
	return nil
}

func (s *PointsService) checkIdempotency(ctx context.Context, key string) error {
	ok, err := s.cache.SetIdempotency(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency check failed: %w", err)
	}
	if !ok {
		return ErrDuplicateRequest
	}
	return nil
}
