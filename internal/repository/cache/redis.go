package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// Cache key prefixes
	KeyPrefixScreenshot = "screenshot:"

	// Default TTL for cached items
	DefaultTTL = 1 * time.Hour
)

// ErrUnavailable is returned when the cache has no Redis client
var ErrUnavailable = errors.New("redis client not available")

// Repository represents a Redis cache repository
type Repository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepository creates a new Redis cache repository. A nil client yields a
// repository that stores nothing and always misses.
func NewRepository(client *redis.Client, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{
		client: client,
		ttl:    ttl,
	}
}

// Enabled reports whether a Redis client is configured
func (r *Repository) Enabled() bool {
	return r != nil && r.client != nil
}

// ScreenshotKey derives a cache key from the target URL and the canonical option string
func ScreenshotKey(url, options string) string {
	sum := sha256.Sum256([]byte(url + "|" + options))
	return KeyPrefixScreenshot + hex.EncodeToString(sum[:])
}

// CacheScreenshot stores PNG bytes under key
func (r *Repository) CacheScreenshot(ctx context.Context, key string, png []byte) error {
	if !r.Enabled() {
		return nil // Skip if Redis is not available
	}
	if err := r.client.Set(ctx, key, png, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache screenshot: %w", err)
	}
	return nil
}

// GetScreenshot returns cached PNG bytes, or nil on a miss
func (r *Repository) GetScreenshot(ctx context.Context, key string) ([]byte, error) {
	if !r.Enabled() {
		return nil, ErrUnavailable
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss, not an error
		}
		return nil, err
	}
	return data, nil
}

// TTL returns the remaining lifetime of a cached entry
func (r *Repository) TTL(ctx context.Context, key string) (time.Duration, error) {
	if !r.Enabled() {
		return 0, ErrUnavailable
	}
	return r.client.TTL(ctx, key).Result()
}

// Invalidate removes a cached entry
func (r *Repository) Invalidate(ctx context.Context, key string) error {
	if !r.Enabled() {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}
