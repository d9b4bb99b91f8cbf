package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/amanshu0143/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, code string) (*domain.Product, error) {
	data, err := r.client.Get(ctx, cacheKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product domain.Product
	if err2 := json.Unmarshal(data, &product); err2 != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err2)
	}

	return &product, nil
}

func (r RedisCache) GetMany(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	found := make(map[string]domain.Product, len(codes))
	if len(codes) == 0 {
		return found, nil
	}

	keys := make([]string, len(codes))
	for i, c := range codes {
		keys[i] = cacheKey(c)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget failed: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var product domain.Product
		if err := json.Unmarshal([]byte(s), &product); err != nil {
			// a corrupt entry is treated as a miss
			continue
		}
		found[codes[i]] = product
	}
	return found, nil
}

// Set stores product with a jittered TTL so entries written together do not
// all expire together.
func (r RedisCache) Set(ctx context.Context, product domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cacheKey(product.Code), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, cacheKey(code)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(code string) string {
	return fmt.Sprintf("product:%s", code)
}
