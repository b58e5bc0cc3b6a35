package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/invomate/backend-go/internal/config"
)

// PlanHandler handles public plan information API requests
type PlanHandler struct{}

// NewPlanHandler creates a new plan handler
func NewPlanHandler() *PlanHandler {
	return &PlanHandler{}
}

// GetAllPlans handles GET /plans - returns all plan tiers with features,
// limitations and billing options for the pricing page
func (h *PlanHandler) GetAllPlans(c *gin.Context) {
	plans := []config.Plan{}

	for _, tier := range config.PlanTiers {
		plans = append(plans, config.GetPlan(tier))
	}

	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
	})
}

// GetPlan handles GET /plans/:tier - returns a single plan, falling back to
// free for unknown tiers
func (h *PlanHandler) GetPlan(c *gin.Context) {
	tier := config.PlanTier(c.Param("tier"))

	c.JSON(http.StatusOK, gin.H{
		"plan": config.GetPlan(tier),
	})
}
