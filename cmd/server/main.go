package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/rebite/rebite/internal/adapter/handler"
	"github.com/rebite/rebite/internal/adapter/storage"
	"github.com/rebite/rebite/internal/core/domain"
	"github.com/rebite/rebite/internal/core/service"
	"github.com/rebite/rebite/internal/port"
)

const (
	defaultHTTPAddr  = ":8080"
	defaultMySQLDSN  = "root:root@tcp(localhost:3306)/rebite?parseTime=true"
	defaultRedisAddr = "localhost:6379"
	workerCount      = 10
	queueSize        = 10000
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", envOr("MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", defaultRedisAddr),
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	// Initialize adapters
	redisAdapter := storage.NewRedisAdapter(rdb)
	mysqlAdapter := storage.NewMySQLAdapter(db)

	// Initialize services
	listingService := service.NewListingService(mysqlAdapter, redisAdapter)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter, redisAdapter, queueSize)
	pointsService := service.NewPointsService(mysqlAdapter, redisAdapter)

	// Start worker pool draining accepted orders into MySQL
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			workerLoop(id, orderService.GetOrderQueue(), mysqlAdapter, redisAdapter)
		}(i)
	}
	log.Printf("started %d workers", workerCount)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(listingService, orderService, pointsService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    envOr("HTTP_ADDR", defaultHTTPAddr),
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	// Close order queue and wait for workers
	orderService.Close()
	wg.Wait()
	log.Println("workers stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

// workerLoop persists accepted orders. On failure the cached quantities are
// restored so the hot-path gate stays in sync with the database.
func workerLoop(id int, queue <-chan domain.Order, db port.OrderRepository, cache port.CacheRepository) {
	for order := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if err := db.CreateOrder(ctx, order); err != nil {
			log.Printf("worker %d: failed to save order %s: %v", id, order.ID, err)

			for _, item := range order.Items {
				if rollbackErr := cache.IncrementQuantity(ctx, item.ListingID, item.Quantity); rollbackErr != nil {
					log.Printf("worker %d: CRITICAL rollback failed for order %s listing %s: %v",
						id, order.ID, item.ListingID, rollbackErr)
				}
			}
		} else {
			log.Printf("worker %d: saved order %s", id, order.ID)
		}

		cancel()
	}
}
