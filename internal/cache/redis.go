package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_basket/internal/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, packageID string) (*domain.Package, error) {
	data, err := r.client.Get(ctx, cacheKey(packageID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var pkg domain.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("unmarshal package failed: %w", err)
	}

	return &pkg, nil
}

func (r RedisCache) Set(ctx context.Context, packageID string, pkg *domain.Package) error {
	data, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("marshal package failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(60)) * time.Second
	if err := r.client.Set(ctx, cacheKey(packageID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, packageID string) error {
	if err := r.client.Del(ctx, cacheKey(packageID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(packageID string) string {
	return fmt.Sprintf("package:%s", packageID)
}
