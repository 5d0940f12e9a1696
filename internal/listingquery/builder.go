package listingquery

import (
	"strings"
)

// cond is one WHERE predicate with its positional arguments.
type cond struct {
	sql  string
	args []interface{}
}

const selectColumns = `l.id, l.vendor_id, l.title, l.description, l.category,
	l.price_cents, l.original_price_cents, l.quantity, l.unit, l.expiry_date,
	l.is_active, l.rescue_score, l.dietary_tags, l.allergens, l.lat, l.lng,
	l.created_at, l.updated_at`

// distanceExpr measures meters from the origin point to the listing.
// MySQL POINT takes (lng, lat) order.
const distanceExpr = `ST_Distance_Sphere(POINT(l.lng, l.lat), POINT(?, ?))`

// Query is the compiled form of a Filters value: one SELECT and one COUNT
// built from the same predicate list, so pagination math can never disagree
// with the page contents.
type Query struct {
	SelectSQL  string
	SelectArgs []interface{}
	CountSQL   string
	CountArgs  []interface{}
}

// Build compiles normalized filters. Callers must run Normalize first;
// Build trusts the enum values it is handed.
func Build(f Filters) Query {
	conds := []cond{
		{sql: "l.is_active = TRUE"},
		{sql: "l.expiry_date > NOW()"},
	}

	if f.SearchText != "" {
		pattern := "%" + strings.ToLower(f.SearchText) + "%"
		conds = append(conds, cond{
			sql:  "(LOWER(l.title) LIKE ? OR LOWER(l.description) LIKE ? OR LOWER(v.business_name) LIKE ?)",
			args: []interface{}{pattern, pattern, pattern},
		})
	}
	if f.Category != "" {
		conds = append(conds, cond{sql: "l.category = ?", args: []interface{}{f.Category}})
	}
	if f.HasPriceMin {
		conds = append(conds, cond{sql: "l.price_cents >= ?", args: []interface{}{f.PriceMinCents}})
	}
	if f.HasPriceMax {
		conds = append(conds, cond{sql: "l.price_cents <= ?", args: []interface{}{f.PriceMaxCents}})
	}
	// Listing tags must be a superset of every requested dietary tag.
	for _, tag := range f.DietaryTags {
		conds = append(conds, cond{
			sql:  "JSON_CONTAINS(l.dietary_tags, JSON_QUOTE(?))",
			args: []interface{}{tag},
		})
	}
	// Listing allergens must be disjoint from the excluded set.
	for _, allergen := range f.ExcludeAllergens {
		conds = append(conds, cond{
			sql:  "NOT JSON_CONTAINS(l.allergens, JSON_QUOTE(?))",
			args: []interface{}{allergen},
		})
	}

	withDistance := f.Origin != nil
	if withDistance && f.MaxDistanceKm > 0 {
		conds = append(conds, cond{
			sql:  distanceExpr + " <= ?",
			args: []interface{}{f.Origin.Lng, f.Origin.Lat, f.MaxDistanceKm * 1000},
		})
	}

	whereSQL, whereArgs := joinConds(conds)

	var sel strings.Builder
	var selectArgs []interface{}

	sel.WriteString("SELECT ")
	sel.WriteString(selectColumns)
	if withDistance {
		sel.WriteString(", ")
		sel.WriteString(distanceExpr)
		sel.WriteString(" AS distance")
		selectArgs = append(selectArgs, f.Origin.Lng, f.Origin.Lat)
	}
	sel.WriteString(" FROM listings l JOIN vendors v ON v.id = l.vendor_id WHERE ")
	sel.WriteString(whereSQL)
	selectArgs = append(selectArgs, whereArgs...)

	sel.WriteString(" ORDER BY ")
	sel.WriteString(orderClause(f, withDistance))

	sel.WriteString(" LIMIT ? OFFSET ?")
	selectArgs = append(selectArgs, f.Limit, (f.Page-1)*f.Limit)

	countSQL := "SELECT COUNT(*) FROM listings l JOIN vendors v ON v.id = l.vendor_id WHERE " + whereSQL
	countArgs := make([]interface{}, len(whereArgs))
	copy(countArgs, whereArgs)

	return Query{
		SelectSQL:  sel.String(),
		SelectArgs: selectArgs,
		CountSQL:   countSQL,
		CountArgs:  countArgs,
	}
}

func joinConds(conds []cond) (string, []interface{}) {
	parts := make([]string, 0, len(conds))
	var args []interface{}
	for _, c := range conds {
		parts = append(parts, c.sql)
		args = append(args, c.args...)
	}
	return strings.Join(parts, " AND "), args
}

// orderClause resolves the sort request. Ties always break on created_at DESC
// so paging is deterministic. sortBy=distance without an origin point falls
// back to the default ordering instead of erroring.
func orderClause(f Filters, withDistance bool) string {
	dir := "DESC"
	if SortOrder(f.SortOrder) == OrderAsc {
		dir = "ASC"
	}

	switch SortField(f.SortBy) {
	case SortCreatedAt:
		return "l.created_at " + dir
	case SortPrice:
		return "l.price_cents " + dir + ", l.created_at DESC"
	case SortRescueScore:
		return "l.rescue_score " + dir + ", l.created_at DESC"
	case SortDistance:
		if withDistance {
			return "distance " + dir + ", l.created_at DESC"
		}
	}
	return "l.rescue_score DESC, l.created_at DESC"
}
