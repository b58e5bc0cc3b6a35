package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/invomate/backend-go/internal/config"
)

// RateLimiter throttles the permission pre-flight endpoints using Redis.
// It counts check calls per user per minute against the plan's
// PermissionChecksPerMinute allowance.
type RateLimiter interface {
	// CheckMinuteLimit checks if the user has exhausted this minute's
	// permission-check allowance.
	// Returns: allowed bool, used int64, limit int64, error
	CheckMinuteLimit(ctx context.Context, userID uint, limits config.Limitations) (bool, int64, int64, error)

	// IncrementMinuteCount increments the per-minute check count for a user
	IncrementMinuteCount(ctx context.Context, userID uint) error

	// GetRemainingChecks returns the checks left in the current minute
	GetRemainingChecks(ctx context.Context, userID uint, limits config.Limitations) (int64, error)

	// Close closes the Redis connection
	Close() error
}

type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
	)

	return &redisRateLimiter{
		client: client,
		logger: logger,
	}, nil
}

// NewRateLimiterForTesting creates a rate limiter with a provided redis.Client (for testing)
func NewRateLimiterForTesting(client *redis.Client, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{
		client: client,
		logger: logger,
	}
}

// minuteKey generates the Redis key for the per-minute check count
// Format: rate:checks:{userID}:{YYYY-MM-DDTHH:MM}
func minuteKey(userID uint) string {
	minute := time.Now().UTC().Format("2006-01-02T15:04")
	return fmt.Sprintf("rate:checks:%d:%s", userID, minute)
}

func (r *redisRateLimiter) CheckMinuteLimit(ctx context.Context, userID uint, limits config.Limitations) (bool, int64, int64, error) {
	// If limit is 0 or negative, unthrottled
	if limits.PermissionChecksPerMinute <= 0 {
		return true, 0, 0, nil
	}

	key := minuteKey(userID)
	count, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		// Key doesn't exist, user hasn't checked anything this minute
		return true, 0, int64(limits.PermissionChecksPerMinute), nil
	}
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to get check count", "error", err, "user_id", userID)
		// On error, allow the request but log it
		return true, 0, int64(limits.PermissionChecksPerMinute), err
	}

	allowed := count < int64(limits.PermissionChecksPerMinute)
	return allowed, count, int64(limits.PermissionChecksPerMinute), nil
}

func (r *redisRateLimiter) IncrementMinuteCount(ctx context.Context, userID uint) error {
	key := minuteKey(userID)

	pipe := r.client.Pipeline()

	// Increment the counter
	pipe.Incr(ctx, key)

	// Two minutes comfortably outlives the window the key is named after
	pipe.Expire(ctx, key, 2*time.Minute)

	_, err := pipe.Exec(ctx)
	if err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to increment check count", "error", err, "user_id", userID)
		return err
	}

	return nil
}

func (r *redisRateLimiter) GetRemainingChecks(ctx context.Context, userID uint, limits config.Limitations) (int64, error) {
	// If limit is 0 or negative, unthrottled
	if limits.PermissionChecksPerMinute <= 0 {
		return -1, nil // -1 indicates unthrottled
	}

	key := minuteKey(userID)
	count, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return int64(limits.PermissionChecksPerMinute), nil
	}
	if err != nil {
		return 0, err
	}

	remaining := int64(limits.PermissionChecksPerMinute) - count
	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - rate limiting is disabled")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) CheckMinuteLimit(ctx context.Context, userID uint, limits config.Limitations) (bool, int64, int64, error) {
	return true, 0, int64(limits.PermissionChecksPerMinute), nil
}

func (r *NoOpRateLimiter) IncrementMinuteCount(ctx context.Context, userID uint) error {
	return nil
}

func (r *NoOpRateLimiter) GetRemainingChecks(ctx context.Context, userID uint, limits config.Limitations) (int64, error) {
	return -1, nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}
