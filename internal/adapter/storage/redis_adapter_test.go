package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestDecrementQuantity_Success(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	// Setup
	client.Del(ctx, "listing:qty:test-listing")
	adapter.SetQuantity(ctx, "test-listing", 10)

	// Test
	ok, err := adapter.DecrementQuantity(ctx, "test-listing", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected success")
	}

	// Verify
	quantity, _ := client.Get(ctx, "listing:qty:test-listing").Int()
	if quantity != 7 {
		t.Errorf("expected quantity 7, got %d", quantity)
	}
}

func TestDecrementQuantity_Insufficient(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "listing:qty:test-listing")
	adapter.SetQuantity(ctx, "test-listing", 5)

	ok, err := adapter.DecrementQuantity(ctx, "test-listing", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected failure due to insufficient quantity")
	}

	// Verify quantity unchanged
	quantity, _ := client.Get(ctx, "listing:qty:test-listing").Int()
	if quantity != 5 {
		t.Errorf("expected quantity 5, got %d", quantity)
	}
}

func TestDecrementQuantity_KeyNotExists(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	client.Del(ctx, "listing:qty:missing-listing")

	ok, err := adapter.DecrementQuantity(ctx, "missing-listing", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected failure for missing key")
	}
}

func TestDecrementQuantity_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	initial := 20
	client.Del(ctx, "listing:qty:concurrent-listing")
	adapter.SetQuantity(ctx, "concurrent-listing", initial)

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.DecrementQuantity(ctx, "concurrent-listing", 1)
			if err == nil && ok {
				successCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != int32(initial) {
		t.Errorf("expected %d successes, got %d", initial, successCount.Load())
	}

	quantity, _ := client.Get(ctx, "listing:qty:concurrent-listing").Int()
	if quantity != 0 {
		t.Errorf("expected quantity 0, got %d", quantity)
	}
}

func TestSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client)

	key := "order:test-request"
	client.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first set to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second set to fail")
	}
}
