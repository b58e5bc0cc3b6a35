package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
	"github.com/invomate/backend-go/internal/database/service"
)

// currentUser loads the authenticated user set by the auth middleware.
// Writes the error response itself and returns nil when the user can't be resolved.
func currentUser(c *gin.Context, userService service.UserService, logger *slog.Logger) *models.User {
	userID, exists := c.Get("userID")
	if !exists {
		logger.Error("❌ [Handler] User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil
	}

	userIDUint, ok := userID.(uint)
	if !ok {
		logger.Error("❌ [Handler] Invalid user ID type")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return nil
	}

	user, err := userService.GetUser(userIDUint)
	if err != nil {
		logger.Error("❌ [Handler] Failed to load user", "user_id", userIDUint, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil
	}

	return user
}

// respondQuotaError translates a quota denial into the upgrade-prompt payload.
// The UI renders the prompt from this data without re-deriving limit logic.
func respondQuotaError(c *gin.Context, user *models.User, qe *config.QuotaError) {
	plan := user.GetPlan()
	c.JSON(http.StatusForbidden, gin.H{
		"error": qe.Message,
		"upgrade": gin.H{
			"resource_type": qe.Resource,
			"current_usage": qe.Current,
			"limit":         qe.Limit,
			"plan_name":     plan.Name,
			"next_plan":     config.GetPlan(config.NextTier(plan.ID)),
		},
	})
}

// respondResourceError maps common service errors to HTTP responses
func respondResourceError(c *gin.Context, user *models.User, logger *slog.Logger, err error) {
	var qe *config.QuotaError
	switch {
	case errors.As(err, &qe):
		respondQuotaError(c, user, qe)
	case errors.Is(err, service.ErrNotResourceOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, service.ErrTemplateNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "Template not available on current plan"})
	case errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrInvoiceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		logger.Error("❌ [Handler] Internal server error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
