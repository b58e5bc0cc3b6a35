package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/service"
	"github.com/invomate/backend-go/internal/middleware"
)

// SubscriptionHandler exposes the permission facade to the browser UI so the
// frontend can pre-flight actions and render upgrade prompts
type SubscriptionHandler struct {
	subscription service.SubscriptionService
	userService  service.UserService
	limiter      middleware.RateLimiter
	logger       *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(
	subscription service.SubscriptionService,
	userService service.UserService,
	limiter middleware.RateLimiter,
	logger *slog.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscription: subscription,
		userService:  userService,
		limiter:      limiter,
		logger:       logger,
	}
}

// allowCheck rate-limits a pre-flight check call against the plan's
// per-minute allowance. When the allowance is exhausted it writes a 429
// and returns false; Redis errors fail open.
func (h *SubscriptionHandler) allowCheck(c *gin.Context, user *models.User) bool {
	limits := config.GetResourceLimits(user.SubscriptionTier)

	allowed, used, limit, err := h.limiter.CheckMinuteLimit(c.Request.Context(), user.ID, limits)
	if err != nil {
		// CheckMinuteLimit already allowed the request on error
		h.logger.Warn("⚠️ [Subscription] Rate limit check failed, allowing request", "user_id", user.ID, "error", err)
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error": "Too many permission checks, slow down",
			"used":  used,
			"limit": limit,
		})
		return false
	}

	if err := h.limiter.IncrementMinuteCount(c.Request.Context(), user.ID); err != nil {
		h.logger.Warn("⚠️ [Subscription] Failed to record rate limit usage", "user_id", user.ID, "error", err)
	}

	return true
}

// GetCurrentPlan handles GET /subscription/plan - synchronous plan lookup
// for display (pricing, feature lists), no usage round trip
func (h *SubscriptionHandler) GetCurrentPlan(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	plan := h.subscription.GetCurrentPlan(user.SubscriptionTier)

	c.JSON(http.StatusOK, gin.H{
		"plan":      plan,
		"next_plan": h.subscription.GetCurrentPlan(config.NextTier(plan.ID)),
	})
}

// CanCreateResource handles GET /subscription/can-create/:resource
func (h *SubscriptionHandler) CanCreateResource(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	if !h.allowCheck(c, user) {
		return
	}

	resourceType := config.ResourceType(c.Param("resource"))
	if !config.IsValidResourceType(resourceType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown resource type"})
		return
	}

	allowed := h.subscription.CanCreateResource(c.Request.Context(), user, resourceType)

	response := gin.H{"allowed": allowed}
	if !allowed {
		response["upgrade"] = h.subscription.GetUpgradeInfo(c.Request.Context(), user, resourceType)
	}

	c.JSON(http.StatusOK, response)
}

// CanExportFormat handles GET /subscription/can-export/:format
func (h *SubscriptionHandler) CanExportFormat(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	if !h.allowCheck(c, user) {
		return
	}

	format := config.ExportFormat(c.Param("format"))
	allowed := h.subscription.CanExportFormat(c.Request.Context(), user, format)

	response := gin.H{"allowed": allowed}
	if !allowed {
		response["upgrade"] = h.subscription.GetUpgradeInfo(c.Request.Context(), user, config.ResourceInvoiceExports)
	}

	c.JSON(http.StatusOK, response)
}

// CanUseTemplate handles GET /subscription/can-use-template/:name
func (h *SubscriptionHandler) CanUseTemplate(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	if !h.allowCheck(c, user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed": h.subscription.CanUseTemplate(user.SubscriptionTier, c.Param("name")),
	})
}

// CanUseFeature handles GET /subscription/can-use-feature/:key
func (h *SubscriptionHandler) CanUseFeature(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	if !h.allowCheck(c, user) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed": h.subscription.CanUseFeature(user.SubscriptionTier, c.Param("key")),
	})
}

type TrackActionRequest struct {
	ActionType config.ResourceType    `json:"action_type" binding:"required"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// TrackAction handles POST /subscription/track - records consumption after a
// client-side action (e.g. a browser-rendered PDF download) succeeded
func (h *SubscriptionHandler) TrackAction(c *gin.Context) {
	user := currentUser(c, h.userService, h.logger)
	if user == nil {
		return
	}

	var req TrackActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action_type required"})
		return
	}

	tracked := h.subscription.TrackAction(c.Request.Context(), user, req.ActionType, req.ResourceID, req.Details)

	// Tracking is best-effort: the user action already completed, so this
	// never returns an error status for a failed write
	c.JSON(http.StatusOK, gin.H{"tracked": tracked})
}
