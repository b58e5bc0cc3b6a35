package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
)

// UsageRepository defines the interface for usage counter and audit log operations.
// Counters are the durable source of truth for invoice_exports/email_shares; the
// conditional increment is the final authority for those quotas, the policy check
// in the service layer is only a fast pre-flight.
type UsageRepository interface {
	GetCounter(userID uint, resourceType config.ResourceType) (int64, error)

	// IncrementWithCeiling atomically increments the counter unless doing so
	// would exceed limit. A negative limit means unlimited. Returns the new
	// count, or ErrQuotaExceeded without incrementing.
	IncrementWithCeiling(userID uint, resourceType config.ResourceType, limit int64) (int64, error)

	// SetLimit refreshes the stored ceiling, e.g. after a plan change
	SetLimit(userID uint, resourceType config.ResourceType, limit int64) error

	InsertLog(entry *models.UsageLog) error
}

type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) GetCounter(userID uint, resourceType config.ResourceType) (int64, error) {
	var usage models.ResourceUsage
	err := r.db.Where("user_id = ? AND resource_type = ?", userID, resourceType).
		First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row yet means the user never consumed this resource
			return 0, nil
		}
		return 0, err
	}
	return usage.CurrentCount, nil
}

func (r *usageRepository) IncrementWithCeiling(userID uint, resourceType config.ResourceType, limit int64) (int64, error) {
	var newCount int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Ensure the counter row exists before the conditional update
		usage := models.ResourceUsage{
			UserID:       userID,
			ResourceType: resourceType,
			CurrentCount: 0,
			LimitCount:   limit,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "resource_type"}},
			DoNothing: true,
		}).Create(&usage).Error; err != nil {
			return err
		}

		// The ceiling is enforced here, not by the caller's pre-flight check,
		// so two concurrent increments cannot both pass a quota of N
		result := tx.Model(&models.ResourceUsage{}).
			Where("user_id = ? AND resource_type = ?", userID, resourceType).
			Where("? < 0 OR current_count < ?", limit, limit).
			Updates(map[string]interface{}{
				"current_count": gorm.Expr("current_count + 1"),
				"limit_count":   limit,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrQuotaExceeded
		}

		var updated models.ResourceUsage
		if err := tx.Where("user_id = ? AND resource_type = ?", userID, resourceType).
			First(&updated).Error; err != nil {
			return err
		}
		newCount = updated.CurrentCount
		return nil
	})

	if err != nil {
		return 0, err
	}
	return newCount, nil
}

func (r *usageRepository) SetLimit(userID uint, resourceType config.ResourceType, limit int64) error {
	return r.db.Model(&models.ResourceUsage{}).
		Where("user_id = ? AND resource_type = ?", userID, resourceType).
		Update("limit_count", limit).Error
}

func (r *usageRepository) InsertLog(entry *models.UsageLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.Create(entry).Error
}

// Repository errors
var (
	ErrQuotaExceeded = errors.New("resource quota exceeded")
)
