package service

import (
	"context"
	"encoding/json"
	"time"

	"analytics-be/pkg/redis"
	"go.uber.org/zap"
)

// CacheService provides a cache-aside layer for normalized analytics
// results. Every failure degrades to a miss: the provider call is the
// source of truth and caching never changes result semantics.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetJSON reads key and unmarshals it into v. Returns false on miss,
// error, or corrupted payload; the caller falls through to the provider.
func (c *CacheService) GetJSON(ctx context.Context, key string, v interface{}) bool {
	cached, err := c.redis.Get(ctx, key)
	if err != nil {
		if !redis.IsNil(err) {
			c.logger.Warn("Cache read failed, falling back to provider",
				zap.String("key", key),
				zap.Error(err))
		}
		return false
	}
	if cached == "" {
		return false
	}

	if err := json.Unmarshal([]byte(cached), v); err != nil {
		c.logger.Warn("Cache payload corrupted, falling back to provider",
			zap.String("key", key),
			zap.Error(err))
		return false
	}

	c.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

// SetJSONAsync caches v under key without blocking the request path
func (c *CacheService) SetJSONAsync(key string, v interface{}, ttl time.Duration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		data, err := json.Marshal(v)
		if err != nil {
			c.logger.Error("Failed to marshal cache payload",
				zap.String("key", key),
				zap.Error(err))
			return
		}

		if err := c.redis.Set(ctx, key, string(data), ttl); err != nil {
			c.logger.Error("Failed to cache payload",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

// SetJSON caches v under key synchronously, used where the caller needs
// the write to complete (tests, warm-up)
func (c *CacheService) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, key, string(data), ttl)
}

// Keys exposes the environment-aware key builder
func (c *CacheService) Keys() *redis.KeyBuilder {
	return c.redis.KeyBuilder
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}
