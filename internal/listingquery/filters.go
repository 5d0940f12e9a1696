// Package listingquery compiles a bag of optional listing filters into one
// parameterized SELECT plus a COUNT sharing the same predicate set, so the
// feed, search and nearby paths do not diverge.
package listingquery

import (
	"errors"
	"fmt"

	"github.com/rebite/rebite/internal/core/domain"
)

var ErrInvalidFilter = errors.New("invalid filter")

type SortField string

const (
	SortCreatedAt   SortField = "created_at"
	SortPrice       SortField = "price"
	SortDistance    SortField = "distance"
	SortRescueScore SortField = "rescue_score"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filters holds the optional search parameters. Zero values mean "not set",
// except Page and Limit which are normalized to defaults.
type Filters struct {
	SearchText       string
	Category         string
	PriceMinCents    int64
	PriceMaxCents    int64
	HasPriceMin      bool
	HasPriceMax      bool
	DietaryTags      []string
	ExcludeAllergens []string
	Origin           *domain.Point
	MaxDistanceKm    float64
	SortBy           string
	SortOrder        string
	Page             int
	Limit            int
}

// Normalize validates enums and bounds and fills pagination defaults.
// Invalid category, sortBy or sortOrder values are rejected rather than
// silently replaced; the one sanctioned fallback is sortBy=distance without
// an origin point, which Build resolves to the default ordering.
func (f *Filters) Normalize() error {
	if f.Category != "" && !domain.ValidCategory(f.Category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidFilter, f.Category)
	}
	if f.SortBy != "" {
		switch SortField(f.SortBy) {
		case SortCreatedAt, SortPrice, SortDistance, SortRescueScore:
		default:
			return fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, f.SortBy)
		}
	}
	if f.SortOrder != "" {
		switch SortOrder(f.SortOrder) {
		case OrderAsc, OrderDesc:
		default:
			return fmt.Errorf("%w: unknown sort order %q", ErrInvalidFilter, f.SortOrder)
		}
	}
	if f.HasPriceMin && f.PriceMinCents < 0 {
		return fmt.Errorf("%w: negative price_min", ErrInvalidFilter)
	}
	if f.HasPriceMax && f.PriceMaxCents < 0 {
		return fmt.Errorf("%w: negative price_max", ErrInvalidFilter)
	}
	if f.HasPriceMin && f.HasPriceMax && f.PriceMinCents > f.PriceMaxCents {
		return fmt.Errorf("%w: price_min above price_max", ErrInvalidFilter)
	}
	if f.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: negative max_distance_km", ErrInvalidFilter)
	}
	if f.MaxDistanceKm > 0 && f.Origin == nil {
		return fmt.Errorf("%w: max_distance_km requires an origin point", ErrInvalidFilter)
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return nil
}

// Page is one page of results plus the count over the full filtered set.
type Page struct {
	Items []domain.Listing `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Pages int              `json:"pages"`
}

// PageCount returns ceil(total/limit).
func PageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
