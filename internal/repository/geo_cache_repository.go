package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/siqiongbil/blog-analytics/internal/geo"
	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/redis/go-redis/v9"
)

// geoCacheRepository Redis-реализация кэша геолокации (geo.Cache).
// TTL задаётся на уровне ключа, поэтому Get не делает собственной
// проверки свежести — протухшие ключи вытесняет сам Redis.
type geoCacheRepository struct {
	redis *RedisDB
	ttl   time.Duration
}

func NewGeoCacheRepository(redis *RedisDB, ttl time.Duration) geo.Cache {
	return &geoCacheRepository{redis: redis, ttl: ttl}
}

func (r *geoCacheRepository) Get(ctx context.Context, ip string) (*models.CachedGeoLocation, error) {
	data, err := r.redis.Client.Get(ctx, r.key(ip)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached location: %w", err)
	}

	var entry models.CachedGeoLocation
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached location: %w", err)
	}

	return &entry, nil
}

func (r *geoCacheRepository) Set(ctx context.Context, ip string, entry *models.CachedGeoLocation) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached location: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(ip), data, r.ttl).Err()
}

func (r *geoCacheRepository) Delete(ctx context.Context, ip string) error {
	return r.redis.Client.Del(ctx, r.key(ip)).Err()
}

// Clear удаляет все записи кэша геолокации по префиксу ключа
func (r *geoCacheRepository) Clear(ctx context.Context) error {
	iter := r.redis.Client.Scan(ctx, 0, "geo:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.redis.Client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	return iter.Err()
}

func (r *geoCacheRepository) key(ip string) string {
	return "geo:" + ip
}
