package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	quantityKeyPrefix = "listing:qty:"
	idempotencyKeyTTL = 24 * time.Hour
)

var decrementQuantityScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return 0
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) DecrementQuantity(ctx context.Context, listingID string, quantity int) (bool, error) {
	key := quantityKeyPrefix + listingID

	result, err := decrementQuantityScript.Run(ctx, r.client, []string{key}, quantity).Int()
	if err != nil {
		return false, err
	}

	return result == 1, nil
}

func (r *RedisAdapter) IncrementQuantity(ctx context.Context, listingID string, quantity int) error {
	key := quantityKeyPrefix + listingID
	return r.client.IncrBy(ctx, key, int64(quantity)).Err()
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, listingID string, quantity int) error {
	key := quantityKeyPrefix + listingID
	return r.client.Set(ctx, key, quantity, 0).Err()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}
