package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
)

// RedisUsageCache shares usage snapshots across instances via Redis.
// A cache miss or Redis error is reported as a miss; the counter service falls
// back to the database either way.
type RedisUsageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisUsageCache creates a Redis-backed usage cache
func NewRedisUsageCache(cfg *config.Config, logger *slog.Logger) (*RedisUsageCache, error) {
	logger.Info("🔌 [UsageCache] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDB,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [UsageCache] Redis connection established")

	return &RedisUsageCache{
		client: client,
		ttl:    time.Duration(cfg.UsageCacheTTL) * time.Second,
		logger: logger,
	}, nil
}

// NewRedisUsageCacheForTesting creates a Redis usage cache with a provided redis.Client (for testing)
func NewRedisUsageCacheForTesting(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisUsageCache {
	return &RedisUsageCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// usageKey generates the Redis key for a user's usage snapshot
// Format: usage:counts:{userID}
func usageKey(userID uint) string {
	return fmt.Sprintf("usage:counts:%d", userID)
}

func (c *RedisUsageCache) Get(ctx context.Context, userID uint) (*models.UsageCounts, bool) {
	data, err := c.client.Get(ctx, usageKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("⚠️ [UsageCache] Failed to read snapshot", "user_id", userID, "error", err)
		}
		return nil, false
	}

	var counts models.UsageCounts
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		c.logger.Warn("⚠️ [UsageCache] Failed to unmarshal snapshot", "user_id", userID, "error", err)
		return nil, false
	}

	return &counts, true
}

func (c *RedisUsageCache) Set(ctx context.Context, userID uint, counts models.UsageCounts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, usageKey(userID), string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("⚠️ [UsageCache] Failed to store snapshot", "user_id", userID, "error", err)
		return err
	}

	return nil
}

func (c *RedisUsageCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, usageKey(userID)).Err(); err != nil {
		c.logger.Warn("⚠️ [UsageCache] Failed to invalidate snapshot", "user_id", userID, "error", err)
		return err
	}

	c.logger.Debug("🗑️ [UsageCache] Invalidated snapshot", "user_id", userID)
	return nil
}

func (c *RedisUsageCache) Close() error {
	return c.client.Close()
}
