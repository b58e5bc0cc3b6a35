package middleware

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invomate/backend-go/internal/config"
)

func setupRateLimiter(t *testing.T) (*miniredis.Miniredis, RateLimiter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	rl := NewRateLimiterForTesting(client, logger)

	t.Cleanup(func() {
		rl.Close()
		mr.Close()
	})

	return mr, rl
}

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	_, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.GetResourceLimits(config.PlanFree)

	allowed, used, limit, err := rl.CheckMinuteLimit(ctx, 1, limits)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(0), used)
	assert.Equal(t, int64(limits.PermissionChecksPerMinute), limit)

	require.NoError(t, rl.IncrementMinuteCount(ctx, 1))

	allowed, used, _, err = rl.CheckMinuteLimit(ctx, 1, limits)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(1), used)
}

func TestRateLimiter_DeniesAtLimit(t *testing.T) {
	mr, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.Limitations{PermissionChecksPerMinute: 3}

	require.NoError(t, mr.Set(minuteKey(9), "3"))

	allowed, used, limit, err := rl.CheckMinuteLimit(ctx, 9, limits)
	require.NoError(t, err)
	assert.False(t, allowed, "count at the allowance must be denied")
	assert.Equal(t, int64(3), used)
	assert.Equal(t, int64(3), limit)
}

func TestRateLimiter_UnlimitedPlanIsNeverThrottled(t *testing.T) {
	mr, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.GetResourceLimits(config.PlanBusiness)
	require.Equal(t, config.Unlimited, limits.PermissionChecksPerMinute)

	require.NoError(t, mr.Set(minuteKey(2), "100000"))

	allowed, _, _, err := rl.CheckMinuteLimit(ctx, 2, limits)
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, err := rl.GetRemainingChecks(ctx, 2, limits)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), remaining)
}

func TestRateLimiter_FailsOpenWhenRedisDown(t *testing.T) {
	mr, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.Limitations{PermissionChecksPerMinute: 5}

	mr.Close()

	allowed, _, _, err := rl.CheckMinuteLimit(ctx, 4, limits)
	assert.Error(t, err, "the Redis error is surfaced for logging")
	assert.True(t, allowed, "an unreachable Redis must not block checks")
}

func TestRateLimiter_CountExpiresWithTheWindow(t *testing.T) {
	mr, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.Limitations{PermissionChecksPerMinute: 1}

	require.NoError(t, rl.IncrementMinuteCount(ctx, 6))

	allowed, _, _, err := rl.CheckMinuteLimit(ctx, 6, limits)
	require.NoError(t, err)
	assert.False(t, allowed)

	// miniredis only expires keys when time is advanced explicitly
	mr.FastForward(3 * time.Minute)

	allowed, used, _, err := rl.CheckMinuteLimit(ctx, 6, limits)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(0), used)
}

func TestRateLimiter_GetRemainingChecks(t *testing.T) {
	mr, rl := setupRateLimiter(t)
	ctx := context.Background()
	limits := config.Limitations{PermissionChecksPerMinute: 10}

	remaining, err := rl.GetRemainingChecks(ctx, 3, limits)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining, "no usage yet means the full allowance")

	require.NoError(t, mr.Set(minuteKey(3), "12"))

	remaining, err = rl.GetRemainingChecks(ctx, 3, limits)
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining, "overshoot clamps to zero")
}

func TestNoOpRateLimiter_AlwaysAllows(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rl := NewNoOpRateLimiter(logger)
	ctx := context.Background()
	limits := config.Limitations{PermissionChecksPerMinute: 1}

	for i := 0; i < 5; i++ {
		allowed, _, _, err := rl.CheckMinuteLimit(ctx, 1, limits)
		require.NoError(t, err)
		assert.True(t, allowed)
		require.NoError(t, rl.IncrementMinuteCount(ctx, 1))
	}

	remaining, err := rl.GetRemainingChecks(ctx, 1, limits)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), remaining)
	assert.NoError(t, rl.Close())
}
