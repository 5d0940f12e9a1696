package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/listingquery"
	"github.com/rebite/rebite/internal/port"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrListingNotFound = errors.New("listing not found")
)

type ListingService struct {
	listings port.ListingRepository
	cache    port.CacheRepository
	now      func() time.Time
}

func NewListingService(listings port.ListingRepository, cache port.CacheRepository) *ListingService {
	return &ListingService{
		listings: listings,
		cache:    cache,
		now:      time.Now,
	}
}

type CreateListingInput struct {
	VendorID           string
	Title              string
	Description        string
	Category           string
	PriceCents         int64
	OriginalPriceCents int64
	Quantity           int
	Unit               string
	ExpiryDate         time.Time
	DietaryTags        []string
	Allergens          []string
	Location           domain.Point
}

// CreateListing validates the input, computes the rescue score and persists
// the listing; the quantity is mirrored into the cache for the purchase
// hot path.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	if err := validateListingInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	listing := domain.Listing{
		ID:                 uuid.New().String(),
		VendorID:           in.VendorID,
		Title:              in.Title,
		Description:        in.Description,
		Category:           domain.Category(in.Category),
		PriceCents:         in.PriceCents,
		OriginalPriceCents: in.OriginalPriceCents,
		Quantity:           in.Quantity,
		Unit:               in.Unit,
		ExpiryDate:         in.ExpiryDate,
		IsActive:           true,
		RescueScore:        domain.RescueScore(in.OriginalPriceCents, in.PriceCents, in.ExpiryDate, now),
		DietaryTags:        in.DietaryTags,
		Allergens:          in.Allergens,
		Location:           in.Location,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.listings.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}

	if err := s.cache.SetQuantity(ctx, listing.ID, listing.Quantity); err != nil {
		return nil, fmt.Errorf("mirror quantity: %w", err)
	}

	return &listing, nil
}

type UpdateListingInput struct {
	PriceCents         int64
	OriginalPriceCents int64
	Quantity           int
	ExpiryDate         time.Time
}

// UpdateListing applies vendor edits and recomputes the rescue score. The
// score freezes at edit time; reads never recompute it.
func (s *ListingService) UpdateListing(ctx context.Context, id string, in UpdateListingInput) (*domain.Listing, error) {
	if in.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: negative quantity", ErrValidation)
	}

	listing, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	if listing == nil {
		return nil, ErrListingNotFound
	}

	now := s.now()
	listing.PriceCents = in.PriceCents
	listing.OriginalPriceCents = in.OriginalPriceCents
	listing.Quantity = in.Quantity
	listing.ExpiryDate = in.ExpiryDate
	listing.RescueScore = domain.RescueScore(in.OriginalPriceCents, in.PriceCents, in.ExpiryDate, now)
	listing.UpdatedAt = now

	if err := s.listings.UpdateListing(ctx, *listing); err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}

	if err := s.cache.SetQuantity(ctx, listing.ID, listing.Quantity); err != nil {
		return nil, fmt.Errorf("mirror quantity: %w", err)
	}

	return listing, nil
}

// Search validates the filters strictly and delegates to the query builder
// path in storage. Invalid enum values are rejected, not defaulted.
func (s *ListingService) Search(ctx context.Context, filters listingquery.Filters) (*listingquery.Page, error) {
	if err := filters.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return s.listings.SearchListings(ctx, filters)
}

func (s *ListingService) Deactivate(ctx context.Context, id string) error {
	if err := s.listings.DeactivateListing(ctx, id); err != nil {
		return fmt.Errorf("deactivate listing: %w", err)
	}
	return s.cache.SetQuantity(ctx, id, 0)
}

func validateListingInput(in CreateListingInput) error {
	if in.VendorID == "" || in.Title == "" || in.Unit == "" {
		return fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	if !domain.ValidCategory(in.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}
	if in.PriceCents <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if in.OriginalPriceCents < 0 {
		return fmt.Errorf("%w: negative original price", ErrValidation)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", ErrValidation)
	}
	return nil
}
