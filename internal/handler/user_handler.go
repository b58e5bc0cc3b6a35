package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/service"
)

// UserHandler handles user API requests for profile and subscription management
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile handles GET /me/profile - returns current user's profile and plan info
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	plan := user.GetPlan()

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":                    user.ID,
			"email":                 user.Email,
			"full_name":             user.FullName,
			"subscription_tier":     user.SubscriptionTier,
			"subscription_status":   user.SubscriptionStatus,
			"subscription_end_date": user.SubscriptionEndDate,
			"created_at":            user.CreatedAt,
			"updated_at":            user.UpdatedAt,
		},
		"plan":   plan,
		"limits": plan.Limitations,
	})
}

// GetUsage handles GET /me/usage - returns current usage counts against plan limits
func (h *UserHandler) GetUsage(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	quota, err := h.userService.GetUserQuota(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("❌ [UserHandler] Failed to get user quota", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"plan":   quota.Plan.Name,
		"tier":   quota.Plan.ID,
		"usage":  quota.Usage,
		"limits": quota.Limits,
	})
}

type UpdateSubscriptionRequest struct {
	Tier    config.PlanTier `json:"tier" binding:"required"`
	EndDate *time.Time      `json:"end_date,omitempty"`
}

// UpdateSubscription handles PUT /me/subscription - called by the payment
// collaborator after a successful checkout
func (h *UserHandler) UpdateSubscription(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("❌ [UserHandler] Invalid subscription request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid tier required"})
		return
	}

	updated, err := h.userService.UpdateSubscriptionTier(c.Request.Context(), user.ID, req.Tier, req.EndDate)
	if err != nil {
		if err == service.ErrInvalidPlanTier {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan tier"})
			return
		}
		h.logger.Error("❌ [UserHandler] Failed to update subscription", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": updated,
		"plan": updated.GetPlan(),
	})
}
