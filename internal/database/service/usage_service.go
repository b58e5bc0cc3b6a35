package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/invomate/backend-go/internal/cache"
	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
)

// UsageService computes current per-user resource counts and records
// consumption of tracked actions.
//
// Counting never fails the caller: if the store is unreachable the snapshot
// comes back zeroed and the error is only logged, so a transient read error
// can never block the UI.
type UsageService interface {
	// GetUsageCounts returns the user's usage snapshot. With useCache a recent
	// snapshot is served without touching the database.
	GetUsageCounts(ctx context.Context, userID uint, useCache bool) models.UsageCounts

	// Invalidate drops the cached snapshot so the next read is fresh
	Invalidate(ctx context.Context, userID uint)

	// TrackAction records consumption of an action after it succeeded.
	// Best-effort: failures are logged and reported as false, never as an
	// error that could undo the completed action.
	TrackAction(ctx context.Context, user *models.User, actionType config.ResourceType, resourceID string, details map[string]interface{}) bool
}

type usageService struct {
	clientRepo  repository.ClientRepository
	productRepo repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
	usageRepo   repository.UsageRepository
	cache       cache.UsageCache
	logger      *slog.Logger
}

// NewUsageService creates a new usage service instance
func NewUsageService(
	clientRepo repository.ClientRepository,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	usageRepo repository.UsageRepository,
	usageCache cache.UsageCache,
	logger *slog.Logger,
) UsageService {
	return &usageService{
		clientRepo:  clientRepo,
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
		usageRepo:   usageRepo,
		cache:       usageCache,
		logger:      logger,
	}
}

func (s *usageService) GetUsageCounts(ctx context.Context, userID uint, useCache bool) models.UsageCounts {
	if useCache {
		if cached, ok := s.cache.Get(ctx, userID); ok {
			s.logger.Debug("📖 [UsageService] Serving cached usage snapshot", "user_id", userID)
			return *cached
		}
	}

	counts := models.UsageCounts{}
	degraded := false

	// clients/products/invoices are counted live from their tables
	if n, err := s.clientRepo.CountByUser(userID); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to count clients", "user_id", userID, "error", err)
		degraded = true
	} else {
		counts.Clients = n
	}

	if n, err := s.productRepo.CountByUser(userID); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to count products", "user_id", userID, "error", err)
		degraded = true
	} else {
		counts.Products = n
	}

	if n, err := s.invoiceRepo.CountByUser(userID); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to count invoices", "user_id", userID, "error", err)
		degraded = true
	} else {
		counts.Invoices = n
	}

	// invoice_exports/email_shares come from the persisted counters
	if n, err := s.usageRepo.GetCounter(userID, config.ResourceInvoiceExports); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to read export counter", "user_id", userID, "error", err)
		degraded = true
	} else {
		counts.InvoiceExports = n
	}

	if n, err := s.usageRepo.GetCounter(userID, config.ResourceEmailShares); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to read share counter", "user_id", userID, "error", err)
		degraded = true
	} else {
		counts.EmailShares = n
	}

	// A snapshot with zeroed-out fallbacks is only good for this one
	// request; caching it would hide real usage for the whole TTL
	if degraded {
		return counts
	}

	if err := s.cache.Set(ctx, userID, counts); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to cache usage snapshot", "user_id", userID, "error", err)
	}

	return counts
}

func (s *usageService) Invalidate(ctx context.Context, userID uint) {
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("⚠️ [UsageService] Failed to invalidate usage cache", "user_id", userID, "error", err)
	}
}

func (s *usageService) TrackAction(ctx context.Context, user *models.User, actionType config.ResourceType, resourceID string, details map[string]interface{}) bool {
	if !config.IsValidResourceType(actionType) {
		s.logger.Warn("⚠️ [UsageService] Unknown action type, not tracked", "action_type", actionType)
		return false
	}

	// The next read must reflect this action whether or not the writes succeed
	defer s.Invalidate(ctx, user.ID)

	ok := true

	if config.CounterResources[actionType] {
		limit := int64(user.GetPlanLimits().QuotaFor(actionType))
		newCount, err := s.usageRepo.IncrementWithCeiling(user.ID, actionType, limit)
		if err != nil {
			if errors.Is(err, repository.ErrQuotaExceeded) {
				s.logger.Warn("⚠️ [UsageService] Counter at ceiling, increment refused",
					"user_id", user.ID,
					"action_type", actionType,
					"limit", limit,
				)
			} else {
				s.logger.Error("❌ [UsageService] Failed to increment counter",
					"user_id", user.ID,
					"action_type", actionType,
					"error", err,
				)
			}
			ok = false
		} else {
			s.logger.Debug("📈 [UsageService] Counter incremented",
				"user_id", user.ID,
				"action_type", actionType,
				"count", newCount,
			)
		}
	}

	// Audit log is written for every tracked action, counter or not
	detailsJSON := ""
	if len(details) > 0 {
		if data, err := json.Marshal(details); err != nil {
			s.logger.Warn("⚠️ [UsageService] Failed to marshal action details", "error", err)
		} else {
			detailsJSON = string(data)
		}
	}

	entry := &models.UsageLog{
		UserID:       user.ID,
		Action:       "consume",
		ResourceType: actionType,
		ResourceID:   resourceID,
		UserTier:     user.SubscriptionTier,
		Details:      detailsJSON,
	}

	if err := s.usageRepo.InsertLog(entry); err != nil {
		s.logger.Error("❌ [UsageService] Failed to write usage log",
			"user_id", user.ID,
			"action_type", actionType,
			"error", err,
		)
		ok = false
	}

	return ok
}
