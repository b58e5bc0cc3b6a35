package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
)

// UserService defines the interface for user business logic
type UserService interface {
	// User retrieval
	GetUser(userID uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)

	// Subscription management
	UpdateSubscriptionTier(ctx context.Context, userID uint, tier config.PlanTier, endDate *time.Time) (*models.User, error)
	UpdateSubscriptionStatus(userID uint, status config.SubscriptionStatus) error
	UpdatePaymentCustomerID(userID uint, customerID string) error

	// Quota view
	GetUserQuota(ctx context.Context, userID uint) (*UserQuota, error)
}

// UserQuota represents plan, limits and current usage for a user
type UserQuota struct {
	User   *models.User
	Plan   config.Plan
	Usage  models.UsageCounts
	Limits config.Limitations
}

type userService struct {
	userRepo     repository.UserRepository
	usageRepo    repository.UsageRepository
	usageService UsageService
	logger       *slog.Logger
}

// NewUserService creates a new user service instance
func NewUserService(
	userRepo repository.UserRepository,
	usageRepo repository.UsageRepository,
	usageService UsageService,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:     userRepo,
		usageRepo:    usageRepo,
		usageService: usageService,
		logger:       logger,
	}
}

// ==================== User Retrieval ====================

func (s *userService) GetUser(userID uint) (*models.User, error) {
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.userRepo.FindByEmail(email)
}

// ==================== Subscription Management ====================

func (s *userService) UpdateSubscriptionTier(ctx context.Context, userID uint, tier config.PlanTier, endDate *time.Time) (*models.User, error) {
	s.logger.Info("💳 [UserService] Updating subscription tier", "user_id", userID, "tier", tier)

	if !config.IsValidTier(tier) {
		return nil, ErrInvalidPlanTier
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to find user", "user_id", userID, "error", err)
		return nil, err
	}

	user.SubscriptionTier = tier
	user.SubscriptionEndDate = endDate

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [UserService] Failed to update subscription tier", "user_id", userID, "error", err)
		return nil, err
	}

	// Refresh counter ceilings so the store enforces the new plan's quotas
	limits := config.GetResourceLimits(tier)
	for rt := range config.CounterResources {
		if err := s.usageRepo.SetLimit(userID, rt, int64(limits.QuotaFor(rt))); err != nil {
			s.logger.Warn("⚠️ [UserService] Failed to refresh counter ceiling",
				"user_id", userID,
				"resource_type", rt,
				"error", err,
			)
		}
	}

	// Drop stale cached counts for the old plan
	s.usageService.Invalidate(ctx, userID)

	s.logger.Info("✅ [UserService] Subscription tier updated", "user_id", userID, "tier", tier)
	return user, nil
}

func (s *userService) UpdateSubscriptionStatus(userID uint, status config.SubscriptionStatus) error {
	s.logger.Info("💳 [UserService] Updating subscription status", "user_id", userID, "status", status)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to find user", "user_id", userID, "error", err)
		return err
	}

	user.SubscriptionStatus = status

	if err := s.userRepo.Update(user); err != nil {
		s.logger.Error("❌ [UserService] Failed to update subscription status", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("✅ [UserService] Subscription status updated", "user_id", userID, "status", status)
	return nil
}

func (s *userService) UpdatePaymentCustomerID(userID uint, customerID string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	user.PaymentCustomerID = &customerID
	return s.userRepo.Update(user)
}

// ==================== Quota View ====================

func (s *userService) GetUserQuota(ctx context.Context, userID uint) (*UserQuota, error) {
	s.logger.Info("📊 [UserService] Getting user quota", "user_id", userID)

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.logger.Error("❌ [UserService] Failed to find user", "user_id", userID, "error", err)
		return nil, err
	}

	plan := user.GetPlan()
	counts := s.usageService.GetUsageCounts(ctx, userID, true)

	return &UserQuota{
		User:   user,
		Plan:   plan,
		Usage:  counts,
		Limits: plan.Limitations,
	}, nil
}

// Service errors
var (
	ErrInvalidPlanTier = errors.New("invalid subscription plan tier")
)
