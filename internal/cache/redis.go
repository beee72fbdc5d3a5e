package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/swiftserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	maxJitterMinutes = 5

	fieldData = "data"

	modeStore = "store"
	modeFill  = "fill"
)

// putCart writes {v, data} into the hash at KEYS[1].
// ARGV: version, payload, ttl ms, mode. A fill never touches an existing
// entry; a store skips when the cached version is newer.
var putCart = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur then
  if ARGV[4] == 'fill' then
    return 0
  end
  if tonumber(cur) > tonumber(ARGV[1]) then
    return 0
  end
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, baseTTL time.Duration) *RedisCache {
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	data, err := r.client.HGet(ctx, cacheKey(userID), fieldData).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Store(ctx context.Context, userID string, cart *domain.Cart) error {
	_, err := r.put(ctx, userID, cart, modeStore)
	return err
}

func (r *RedisCache) Fill(ctx context.Context, userID string, cart *domain.Cart) error {
	_, err := r.put(ctx, userID, cart, modeFill)
	return err
}

// put reports whether the entry was written. TTLs are jittered so carts
// cached together do not expire together.
func (r *RedisCache) put(ctx context.Context, userID string, cart *domain.Cart, mode string) (bool, error) {
	data, err := json.Marshal(cart)
	if err != nil {
		return false, fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(maxJitterMinutes))*time.Minute
	written, err := putCart.Run(ctx, r.client, []string{cacheKey(userID)},
		cart.UpdatedAt.UnixMilli(), data, ttl.Milliseconds(), mode).Int()
	if err != nil {
		return false, fmt.Errorf("redis %s failed: %w", mode, err)
	}
	return written == 1, nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("swiftserve:cart:%s", userID)
}
