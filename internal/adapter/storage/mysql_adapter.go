package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/listingquery"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) CreateListing(ctx context.Context, l domain.Listing) error {
	tags, allergens, err := encodeTagSets(l)
	if err != nil {
		return err
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO listings (id, vendor_id, title, description, category,
			price_cents, original_price_cents, quantity, unit, expiry_date,
			is_active, rescue_score, dietary_tags, allergens, lat, lng,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.VendorID, l.Title, l.Description, l.Category,
		l.PriceCents, l.OriginalPriceCents, l.Quantity, l.Unit, l.ExpiryDate,
		l.IsActive, l.RescueScore, tags, allergens, l.Location.Lat, l.Location.Lng,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdateListing(ctx context.Context, l domain.Listing) error {
	tags, allergens, err := encodeTagSets(l)
	if err != nil {
		return err
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE listings
		SET title = ?, description = ?, category = ?, price_cents = ?,
			original_price_cents = ?, quantity = ?, unit = ?, expiry_date = ?,
			is_active = ?, rescue_score = ?, dietary_tags = ?, allergens = ?,
			lat = ?, lng = ?, updated_at = NOW()
		WHERE id = ?`,
		l.Title, l.Description, l.Category, l.PriceCents,
		l.OriginalPriceCents, l.Quantity, l.Unit, l.ExpiryDate,
		l.IsActive, l.RescueScore, tags, allergens,
		l.Location.Lat, l.Location.Lng, l.ID,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (m *MySQLAdapter) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, title, description, category, price_cents,
			original_price_cents, quantity, unit, expiry_date, is_active,
			rescue_score, dietary_tags, allergens, lat, lng, created_at, updated_at
		FROM listings WHERE id = ?`, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query listing: %w", err)
	}
	return l, nil
}

func (m *MySQLAdapter) SearchListings(ctx context.Context, filters listingquery.Filters) (*listingquery.Page, error) {
	q := listingquery.Build(filters)

	var total int
	if err := m.db.QueryRowContext(ctx, q.CountSQL, q.CountArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, q.SelectSQL, q.SelectArgs...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	withDistance := filters.Origin != nil
	items := make([]domain.Listing, 0, filters.Limit)
	for rows.Next() {
		l, err := scanListingRow(rows, withDistance)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return &listingquery.Page{
		Items: items,
		Total: total,
		Page:  filters.Page,
		Limit: filters.Limit,
		Pages: listingquery.PageCount(total, filters.Limit),
	}, nil
}

func (m *MySQLAdapter) DeactivateListing(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE listings SET is_active = FALSE, updated_at = NOW() WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate listing: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (m *MySQLAdapter) CreateVendor(ctx context.Context, v domain.Vendor) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO vendors (id, user_id, business_name, business_type, lat, lng)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.BusinessName, v.BusinessType, v.Location.Lat, v.Location.Lng,
	)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

func encodeTagSets(l domain.Listing) (tags, allergens []byte, err error) {
	tags, err = json.Marshal(emptyIfNil(l.DietaryTags))
	if err != nil {
		return nil, nil, fmt.Errorf("encode dietary tags: %w", err)
	}
	allergens, err = json.Marshal(emptyIfNil(l.Allergens))
	if err != nil {
		return nil, nil, fmt.Errorf("encode allergens: %w", err)
	}
	return tags, allergens, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*domain.Listing, error) {
	return scanListingRow(row, false)
}

func scanListingRow(row rowScanner, withDistance bool) (*domain.Listing, error) {
	var l domain.Listing
	var tags, allergens []byte
	var distance sql.NullFloat64

	dest := []interface{}{
		&l.ID, &l.VendorID, &l.Title, &l.Description, &l.Category,
		&l.PriceCents, &l.OriginalPriceCents, &l.Quantity, &l.Unit, &l.ExpiryDate,
		&l.IsActive, &l.RescueScore, &tags, &allergens,
		&l.Location.Lat, &l.Location.Lng, &l.CreatedAt, &l.UpdatedAt,
	}
	if withDistance {
		dest = append(dest, &distance)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(tags, &l.DietaryTags); err != nil {
		return nil, fmt.Errorf("decode dietary tags: %w", err)
	}
	if err := json.Unmarshal(allergens, &l.Allergens); err != nil {
		return nil, fmt.Errorf("decode allergens: %w", err)
	}
	return &l, nil
}
