package listingquery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebite/rebite/internal/core/domain"
)

func normalized(t *testing.T, f Filters) Filters {
	t.Helper()
	require.NoError(t, f.Normalize())
	return f
}

func TestBuild_BasePredicate(t *testing.T) {
	q := Build(normalized(t, Filters{}))

	assert.Contains(t, q.SelectSQL, "l.is_active = TRUE")
	assert.Contains(t, q.SelectSQL, "l.expiry_date > NOW()")
	assert.Contains(t, q.SelectSQL, "JOIN vendors v ON v.id = l.vendor_id")
	assert.Equal(t, []interface{}{20, 0}, q.SelectArgs)
	assert.Empty(t, q.CountArgs)
}

func TestBuild_DefaultOrdering(t *testing.T) {
	q := Build(normalized(t, Filters{}))
	assert.Contains(t, q.SelectSQL, "ORDER BY l.rescue_score DESC, l.created_at DESC")
}

func TestBuild_SearchTextCoversVendorName(t *testing.T) {
	q := Build(normalized(t, Filters{SearchText: "Tomato"}))

	assert.Contains(t, q.SelectSQL,
		"(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(v.business_name) LIKE ?)")
	// One pattern per field, lowercased.
	assert.Equal(t, "%tomato%", q.CountArgs[0])
	assert.Equal(t, "%tomato%", q.CountArgs[1])
	assert.Equal(t, "%tomato%", q.CountArgs[2])
}

func TestBuild_PriceRangeInclusive(t *testing.T) {
	f := normalized(t, Filters{
		PriceMinCents: 100, HasPriceMin: true,
		PriceMaxCents: 500, HasPriceMax: true,
	})
	q := Build(f)

	assert.Contains(t, q.SelectSQL, "l.price_cents >= ?")
	assert.Contains(t, q.SelectSQL, "l.price_cents <= ?")
	assert.Equal(t, []interface{}{int64(100), int64(500)}, q.CountArgs)
}

func TestBuild_DietaryTagsAndAllergensCombine(t *testing.T) {
	f := normalized(t, Filters{
		DietaryTags:      []string{"vegan", "gluten-free"},
		ExcludeAllergens: []string{"peanuts"},
	})
	q := Build(f)

	assert.Equal(t, 2, strings.Count(q.SelectSQL, "JSON_CONTAINS(l.dietary_tags, JSON_QUOTE(?))"))
	assert.Equal(t, 1, strings.Count(q.SelectSQL, "NOT JSON_CONTAINS(l.allergens, JSON_QUOTE(?))"))
	// Both predicate families are ANDed: a listing matching the tags but
	// carrying an excluded allergen is excluded.
	assert.NotContains(t, q.SelectSQL, " OR NOT JSON_CONTAINS")
	assert.Equal(t, []interface{}{"vegan", "gluten-free", "peanuts"}, q.CountArgs)
}

func TestBuild_DistanceFilterAndAlias(t *testing.T) {
	f := normalized(t, Filters{
		Origin:        &domain.Point{Lat: 6.5, Lng: 3.4},
		MaxDistanceKm: 5,
	})
	q := Build(f)

	assert.Contains(t, q.SelectSQL, "AS distance")
	assert.Contains(t, q.SelectSQL, "ST_Distance_Sphere(POINT(l.lng, l.lat), POINT(?, ?)) <= ?")
	// Max distance is passed in meters.
	assert.Contains(t, q.CountArgs, float64(5000))
	// The count query carries the same distance predicate without the alias.
	assert.Contains(t, q.CountSQL, "ST_Distance_Sphere")
	assert.NotContains(t, q.CountSQL, "AS distance")
}

func TestBuild_DistanceSortWithOrigin(t *testing.T) {
	f := normalized(t, Filters{
		Origin: &domain.Point{Lat: 6.5, Lng: 3.4},
		SortBy: "distance",
	})
	q := Build(f)
	assert.Contains(t, q.SelectSQL, "ORDER BY distance DESC, l.created_at DESC")
}

func TestBuild_DistanceSortWithoutOriginFallsBack(t *testing.T) {
	// Requesting distance ordering without coordinates is the one sanctioned
	// fallback: default ordering, no error.
	f := Filters{SortBy: "distance"}
	require.NoError(t, f.Normalize())

	q := Build(f)
	assert.Contains(t, q.SelectSQL, "ORDER BY l.rescue_score DESC, l.created_at DESC")
	assert.NotContains(t, q.SelectSQL, "ST_Distance_Sphere")
}

func TestBuild_ExplicitSortsKeepTiebreak(t *testing.T) {
	q := Build(normalized(t, Filters{SortBy: "price", SortOrder: "asc"}))
	assert.Contains(t, q.SelectSQL, "ORDER BY l.price_cents ASC, l.created_at DESC")

	q = Build(normalized(t, Filters{SortBy: "created_at", SortOrder: "asc"}))
	assert.Contains(t, q.SelectSQL, "ORDER BY l.created_at ASC")
}

func TestBuild_Pagination(t *testing.T) {
	q := Build(normalized(t, Filters{Page: 2, Limit: 10}))

	require.GreaterOrEqual(t, len(q.SelectArgs), 2)
	assert.Equal(t, 10, q.SelectArgs[len(q.SelectArgs)-2])
	assert.Equal(t, 10, q.SelectArgs[len(q.SelectArgs)-1]) // offset (page-1)*limit

	// The count never pages.
	assert.NotContains(t, q.CountSQL, "LIMIT")
	assert.NotContains(t, q.CountSQL, "OFFSET")
}

func TestBuild_CountSharesPredicates(t *testing.T) {
	f := normalized(t, Filters{
		SearchText:    "bread",
		Category:      "bakery",
		PriceMaxCents: 500, HasPriceMax: true,
		Origin:        &domain.Point{Lat: 1, Lng: 2},
		MaxDistanceKm: 10,
		Page:          3, Limit: 10,
	})
	q := Build(f)

	selectWhere := q.SelectSQL[strings.Index(q.SelectSQL, "WHERE"):strings.Index(q.SelectSQL, " ORDER BY")]
	countWhere := q.CountSQL[strings.Index(q.CountSQL, "WHERE"):]
	assert.Equal(t, selectWhere, countWhere)

	// Select args = distance alias args + where args + limit/offset.
	assert.Equal(t, len(q.CountArgs)+4, len(q.SelectArgs))
}

func TestNormalize_RejectsInvalidEnums(t *testing.T) {
	cases := []Filters{
		{Category: "frozen"},
		{SortBy: "popularity"},
		{SortOrder: "sideways"},
		{MaxDistanceKm: -1},
		{MaxDistanceKm: 5}, // no origin
		{PriceMinCents: 500, HasPriceMin: true, PriceMaxCents: 100, HasPriceMax: true},
	}
	for _, f := range cases {
		err := f.Normalize()
		assert.ErrorIs(t, err, ErrInvalidFilter, "filters: %+v", f)
	}
}

func TestNormalize_PaginationDefaultsAndClamp(t *testing.T) {
	f := Filters{}
	require.NoError(t, f.Normalize())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)

	f = Filters{Page: -3, Limit: 1000}
	require.NoError(t, f.Normalize())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxLimit, f.Limit)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 2, PageCount(11, 10))
	assert.Equal(t, 0, PageCount(0, 10))
}
