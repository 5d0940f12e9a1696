package domain

import "time"

type Category string

const (
	CategoryProduce      Category = "produce"
	CategoryDairy        Category = "dairy"
	CategoryMeat         Category = "meat"
	CategoryBakery       Category = "bakery"
	CategoryPreparedFood Category = "prepared-food"
	CategoryPantry       Category = "pantry"
	CategoryBeverages    Category = "beverages"
)

var categories = map[Category]bool{
	CategoryProduce:      true,
	CategoryDairy:        true,
	CategoryMeat:         true,
	CategoryBakery:       true,
	CategoryPreparedFood: true,
	CategoryPantry:       true,
	CategoryBeverages:    true,
}

// ValidCategory reports whether s is one of the known listing categories.
func ValidCategory(s string) bool {
	return categories[Category(s)]
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

type Listing struct {
	ID          string
	VendorID    string
	Title       string
	Description string
	Category    Category
	// Prices are stored in cents. OriginalPriceCents is zero when the vendor
	// gave no pre-discount price.
	PriceCents         int64
	OriginalPriceCents int64
	Quantity           int
	Unit               string
	ExpiryDate         time.Time
	IsActive           bool
	RescueScore        int
	DietaryTags        []string
	Allergens          []string
	Location           Point
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Available reports whether the listing may be shown or sold at the given time.
func (l Listing) Available(now time.Time) bool {
	return l.IsActive && l.ExpiryDate.After(now)
}

type Vendor struct {
	ID           string
	UserID       string
	BusinessName string
	BusinessType string
	Location     Point
	CreatedAt    time.Time
}
