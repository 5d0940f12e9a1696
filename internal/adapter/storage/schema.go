package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const schema = `
CREATE TABLE IF NOT EXISTS vendors (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL UNIQUE,
	business_name VARCHAR(255) NOT NULL,
	business_type VARCHAR(64) NOT NULL,
	lat DOUBLE NOT NULL,
	lng DOUBLE NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS listings (
	id CHAR(36) PRIMARY KEY,
	vendor_id CHAR(36) NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	category VARCHAR(32) NOT NULL,
	price_cents BIGINT NOT NULL,
	original_price_cents BIGINT NOT NULL DEFAULT 0,
	quantity INT NOT NULL,
	unit VARCHAR(32) NOT NULL,
	expiry_date DATETIME NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	rescue_score INT NOT NULL DEFAULT 0,
	dietary_tags JSON NOT NULL,
	allergens JSON NOT NULL,
	lat DOUBLE NOT NULL,
	lng DOUBLE NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (vendor_id) REFERENCES vendors(id),
	INDEX idx_listings_active_expiry (is_active, expiry_date),
	INDEX idx_listings_category (category),
	INDEX idx_listings_rescue (rescue_score, created_at)
);

CREATE TABLE IF NOT EXISTS orders (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL,
	status VARCHAR(32) NOT NULL,
	total_amount_cents BIGINT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	INDEX idx_orders_user (user_id)
);

CREATE TABLE IF NOT EXISTS order_items (
	id CHAR(36) PRIMARY KEY,
	order_id CHAR(36) NOT NULL,
	listing_id CHAR(36) NOT NULL,
	quantity INT NOT NULL,
	unit_price_cents BIGINT NOT NULL,
	total_cents BIGINT NOT NULL,
	FOREIGN KEY (order_id) REFERENCES orders(id),
	FOREIGN KEY (listing_id) REFERENCES listings(id)
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id CHAR(36) PRIMARY KEY,
	total_points BIGINT NOT NULL DEFAULT 0,
	streak INT NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS points_transactions (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL,
	type VARCHAR(16) NOT NULL,
	amount BIGINT NOT NULL,
	description VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL,
	INDEX idx_points_tx_user (user_id),
	FOREIGN KEY (user_id) REFERENCES profiles(user_id)
);

CREATE TABLE IF NOT EXISTS charities (
	id CHAR(36) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS donations (
	id CHAR(36) PRIMARY KEY,
	user_id CHAR(36) NOT NULL,
	charity_id CHAR(36) NOT NULL,
	amount BIGINT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (charity_id) REFERENCES charities(id)
);
`

// Migrate creates the schema. Statements are idempotent, so running it on
// every startup is safe. The MySQL driver executes one statement per call.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
