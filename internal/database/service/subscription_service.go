package service

import (
	"context"
	"log/slog"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
)

// SubscriptionService is the permission facade consumed by handlers. Plan and
// template lookups are synchronous; resource checks may hit the usage counter
// and are therefore context-bound. Every limit value comes from the plan
// catalog, never from this package.
type SubscriptionService interface {
	// Synchronous, no I/O
	GetCurrentPlan(tier config.PlanTier) config.Plan
	GetResourceLimits(tier config.PlanTier) config.Limitations
	CanUseTemplate(tier config.PlanTier, templateName string) bool
	CanUseFeature(tier config.PlanTier, featureKey string) bool
	HasReachedLimit(tier config.PlanTier, resourceType config.ResourceType, currentCount int64) bool

	// Async, may read usage counts
	CanCreateResource(ctx context.Context, user *models.User, resourceType config.ResourceType) bool
	CanExportFormat(ctx context.Context, user *models.User, format config.ExportFormat) bool
	GetUpgradeInfo(ctx context.Context, user *models.User, resourceType config.ResourceType) UpgradeInfo

	// Consumption tracking (delegated to the usage service)
	TrackAction(ctx context.Context, user *models.User, actionType config.ResourceType, resourceID string, details map[string]interface{}) bool
}

// UpgradeInfo carries everything the UI needs to render an upgrade prompt
// without re-deriving limit logic
type UpgradeInfo struct {
	ResourceType config.ResourceType `json:"resource_type"`
	CurrentUsage int64               `json:"current_usage"`
	Limit        int                 `json:"limit"`
	PlanName     string              `json:"plan_name"`
	NextPlan     config.Plan         `json:"next_plan"`
}

// featureGates maps feature keys to predicates over plan limitations.
// Unknown keys fail open so a stale client never gets hard-blocked on a
// feature the catalog doesn't know about.
var featureGates = map[string]func(config.Limitations) bool{
	"export_pdf":  func(l config.Limitations) bool { return l.AllowsExportFormat(config.ExportPDF) },
	"export_drive": func(l config.Limitations) bool {
		return l.AllowsExportFormat(config.ExportDrive) && l.ExportToDrive
	},
	"export_csv":       func(l config.Limitations) bool { return l.AllowsExportFormat(config.ExportCSV) },
	"export_xlsx":      func(l config.Limitations) bool { return l.AllowsExportFormat(config.ExportXLSX) },
	"export_json":      func(l config.Limitations) bool { return l.AllowsExportFormat(config.ExportJSON) },
	"email_share":      func(l config.Limitations) bool { return l.EmailShare },
	"auto_sync_30min":  func(l config.Limitations) bool { return l.AutoSyncFrequency != config.SyncManual },
	"auto_sync_5min":   func(l config.Limitations) bool { return l.AutoSyncFrequency == config.Sync5Min },
	"template_modern":  func(l config.Limitations) bool { return l.AllowsTemplate("modern") },
	"template_formal":  func(l config.Limitations) bool { return l.AllowsTemplate("formal") },
	"custom_templates": func(l config.Limitations) bool { return l.CustomTemplates },
	"priority_support": func(l config.Limitations) bool { return l.SupportLevel == config.SupportPriority },
	"email_support": func(l config.Limitations) bool {
		return l.SupportLevel == config.SupportEmail || l.SupportLevel == config.SupportPriority
	},
}

type subscriptionService struct {
	usageService UsageService
	logger       *slog.Logger
}

// NewSubscriptionService creates a new subscription service instance
func NewSubscriptionService(usageService UsageService, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		usageService: usageService,
		logger:       logger,
	}
}

// ==================== Synchronous Plan Lookups ====================

func (s *subscriptionService) GetCurrentPlan(tier config.PlanTier) config.Plan {
	return config.GetPlan(tier)
}

func (s *subscriptionService) GetResourceLimits(tier config.PlanTier) config.Limitations {
	return config.GetResourceLimits(tier)
}

func (s *subscriptionService) CanUseTemplate(tier config.PlanTier, templateName string) bool {
	return config.GetResourceLimits(tier).AllowsTemplate(templateName)
}

func (s *subscriptionService) CanUseFeature(tier config.PlanTier, featureKey string) bool {
	gate, ok := featureGates[featureKey]
	if !ok {
		return true
	}
	return gate(config.GetResourceLimits(tier))
}

// HasReachedLimit decides whether one more unit of the resource is allowed.
// Checks use >=, so a quota of N permits exactly N resources. When the
// email_share flag is off, the share limit counts as permanently reached.
func (s *subscriptionService) HasReachedLimit(tier config.PlanTier, resourceType config.ResourceType, currentCount int64) bool {
	limits := config.GetResourceLimits(tier)

	if resourceType == config.ResourceEmailShares && !limits.EmailShare {
		return true
	}

	quota := limits.QuotaFor(resourceType)
	if quota == config.Unlimited {
		return false
	}

	return currentCount >= int64(quota)
}

// ==================== Usage-Bound Checks ====================

func (s *subscriptionService) CanCreateResource(ctx context.Context, user *models.User, resourceType config.ResourceType) bool {
	// Counting failures surface here as zeroed counts, resolving to allow
	counts := s.usageService.GetUsageCounts(ctx, user.ID, true)
	allowed := !s.HasReachedLimit(user.SubscriptionTier, resourceType, counts.Get(resourceType))

	if !allowed {
		s.logger.Info("🚫 [SubscriptionService] Resource creation denied by plan limit",
			"user_id", user.ID,
			"tier", user.SubscriptionTier,
			"resource_type", resourceType,
			"current_count", counts.Get(resourceType),
		)
	}

	return allowed
}

func (s *subscriptionService) CanExportFormat(ctx context.Context, user *models.User, format config.ExportFormat) bool {
	limits := config.GetResourceLimits(user.SubscriptionTier)

	if !limits.AllowsExportFormat(format) {
		return false
	}
	if format == config.ExportDrive && !limits.ExportToDrive {
		return false
	}

	counts := s.usageService.GetUsageCounts(ctx, user.ID, true)
	return !s.HasReachedLimit(user.SubscriptionTier, config.ResourceInvoiceExports, counts.InvoiceExports)
}

func (s *subscriptionService) GetUpgradeInfo(ctx context.Context, user *models.User, resourceType config.ResourceType) UpgradeInfo {
	plan := config.GetPlan(user.SubscriptionTier)
	counts := s.usageService.GetUsageCounts(ctx, user.ID, true)

	return UpgradeInfo{
		ResourceType: resourceType,
		CurrentUsage: counts.Get(resourceType),
		Limit:        plan.Limitations.QuotaFor(resourceType),
		PlanName:     plan.Name,
		NextPlan:     config.GetPlan(config.NextTier(plan.ID)),
	}
}

// ==================== Tracking ====================

func (s *subscriptionService) TrackAction(ctx context.Context, user *models.User, actionType config.ResourceType, resourceID string, details map[string]interface{}) bool {
	return s.usageService.TrackAction(ctx, user, actionType, resourceID, details)
}
