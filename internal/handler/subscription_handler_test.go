package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/service"
)

// stubUsage serves fixed counts so the facade can be exercised without a DB.
type stubUsage struct {
	counts models.UsageCounts
}

func (s *stubUsage) GetUsageCounts(ctx context.Context, userID uint, useCache bool) models.UsageCounts {
	return s.counts
}

func (s *stubUsage) Invalidate(ctx context.Context, userID uint) {}

func (s *stubUsage) TrackAction(ctx context.Context, user *models.User, actionType config.ResourceType, resourceID string, details map[string]interface{}) bool {
	return true
}

// stubUserService resolves every lookup to a single fixed user.
type stubUserService struct {
	user *models.User
}

func (s *stubUserService) GetUser(userID uint) (*models.User, error)           { return s.user, nil }
func (s *stubUserService) GetUserByEmail(email string) (*models.User, error)   { return s.user, nil }
func (s *stubUserService) UpdateSubscriptionTier(ctx context.Context, userID uint, tier config.PlanTier, endDate *time.Time) (*models.User, error) {
	return s.user, nil
}
func (s *stubUserService) UpdateSubscriptionStatus(userID uint, status config.SubscriptionStatus) error {
	return nil
}
func (s *stubUserService) UpdatePaymentCustomerID(userID uint, customerID string) error { return nil }
func (s *stubUserService) GetUserQuota(ctx context.Context, userID uint) (*service.UserQuota, error) {
	return nil, nil
}

// stubLimiter returns a canned verdict and records increments.
type stubLimiter struct {
	allowed    bool
	used       int64
	limit      int64
	increments int
}

func (l *stubLimiter) CheckMinuteLimit(ctx context.Context, userID uint, limits config.Limitations) (bool, int64, int64, error) {
	return l.allowed, l.used, l.limit, nil
}

func (l *stubLimiter) IncrementMinuteCount(ctx context.Context, userID uint) error {
	l.increments++
	return nil
}

func (l *stubLimiter) GetRemainingChecks(ctx context.Context, userID uint, limits config.Limitations) (int64, error) {
	return l.limit - l.used, nil
}

func (l *stubLimiter) Close() error { return nil }

func setupSubscriptionRouter(t *testing.T, limiter *stubLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	user := &models.User{
		ID:                 1,
		Email:              "test@example.com",
		FullName:           "Test User",
		SubscriptionTier:   config.PlanFree,
		SubscriptionStatus: config.SubscriptionActive,
	}

	subscription := service.NewSubscriptionService(&stubUsage{}, logger)
	h := NewSubscriptionHandler(subscription, &stubUserService{user: user}, limiter, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", uint(1))
		c.Next()
	})
	r.GET("/subscription/can-create/:resource", h.CanCreateResource)
	r.GET("/subscription/can-use-feature/:key", h.CanUseFeature)
	return r
}

func TestSubscriptionHandler_CanCreateResource_Throttled(t *testing.T) {
	limiter := &stubLimiter{allowed: false, used: 60, limit: 60}
	r := setupSubscriptionRouter(t, limiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscription/can-create/clients", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(60), body["used"])
	assert.Equal(t, float64(60), body["limit"])
	assert.Equal(t, 0, limiter.increments, "a denied check must not consume allowance")
}

func TestSubscriptionHandler_CanCreateResource_AllowedConsumesAllowance(t *testing.T) {
	limiter := &stubLimiter{allowed: true, used: 2, limit: 60}
	r := setupSubscriptionRouter(t, limiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscription/can-create/clients", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, limiter.increments)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["allowed"])
}

func TestSubscriptionHandler_CanUseFeature_Throttled(t *testing.T) {
	limiter := &stubLimiter{allowed: false, used: 240, limit: 240}
	r := setupSubscriptionRouter(t, limiter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/subscription/can-use-feature/email_share", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
