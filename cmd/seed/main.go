// Seeds demo vendors, listings, profiles and charities, and mirrors listing
// quantities into Redis so the purchase hot path works immediately.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rebite/rebite/internal/adapter/storage"
	"github.com/rebite/rebite/internal/core/domain"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", envOr("MYSQL_DSN", "root:root@tcp(localhost:3306)/rebite?parseTime=true"))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: envOr("REDIS_ADDR", "localhost:6379")})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)

	vendor := domain.Vendor{
		ID:           uuid.New().String(),
		UserID:       uuid.New().String(),
		BusinessName: "Green Valley Farm",
		BusinessType: "farmer",
		Location:     domain.Point{Lat: 6.5244, Lng: 3.3792},
	}
	if err := mysqlAdapter.CreateVendor(ctx, vendor); err != nil {
		log.Fatalf("failed to seed vendor: %v", err)
	}

	now := time.Now()
	listings := []domain.Listing{
		{
			Title: "Surplus tomatoes", Description: "Crate of ripe tomatoes from this morning's harvest",
			Category: domain.CategoryProduce, PriceCents: 500, OriginalPriceCents: 1200,
			Quantity: 20, Unit: "crate", ExpiryDate: now.Add(20 * time.Hour),
			DietaryTags: []string{"vegan", "gluten-free"}, Allergens: []string{},
		},
		{
			Title: "Day-old sourdough", Description: "Yesterday's bake, still excellent",
			Category: domain.CategoryBakery, PriceCents: 300, OriginalPriceCents: 800,
			Quantity: 15, Unit: "loaf", ExpiryDate: now.Add(40 * time.Hour),
			DietaryTags: []string{"vegetarian"}, Allergens: []string{"gluten", "wheat"},
		},
		{
			Title: "Fresh yoghurt", Description: "Short-dated batch",
			Category: domain.CategoryDairy, PriceCents: 250, OriginalPriceCents: 0,
			Quantity: 30, Unit: "cup", ExpiryDate: now.Add(60 * time.Hour),
			DietaryTags: []string{"vegetarian"}, Allergens: []string{"milk"},
		},
	}

	for _, l := range listings {
		l.ID = uuid.New().String()
		l.VendorID = vendor.ID
		l.IsActive = true
		l.RescueScore = domain.RescueScore(l.OriginalPriceCents, l.PriceCents, l.ExpiryDate, now)
		l.Location = vendor.Location
		l.CreatedAt = now
		l.UpdatedAt = now

		if err := mysqlAdapter.CreateListing(ctx, l); err != nil {
			log.Fatalf("failed to seed listing %q: %v", l.Title, err)
		}
		if err := redisAdapter.SetQuantity(ctx, l.ID, l.Quantity); err != nil {
			log.Fatalf("failed to mirror quantity for %q: %v", l.Title, err)
		}
		log.Printf("seeded listing %q (score %d)", l.Title, l.RescueScore)
	}

	charityID := uuid.New().String()
	_, err = db.ExecContext(ctx, `INSERT INTO charities (id, name, created_at) VALUES (?, ?, ?)`,
		charityID, "City Food Bank", now)
	if err != nil {
		log.Fatalf("failed to seed charity: %v", err)
	}
	log.Printf("seeded charity %s", charityID)

	for _, userID := range []string{"demo-alice", "demo-bob"} {
		if err := mysqlAdapter.CreateProfile(ctx, userID); err != nil {
			log.Fatalf("failed to seed profile %s: %v", userID, err)
		}
	}
	log.Println("seeded demo profiles")
}
