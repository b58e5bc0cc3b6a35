package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.ResourceUsage{},
		&models.UsageLog{},
	)
	require.NoError(t, err)

	return db
}

func TestUsageRepository_GetCounter(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	// No row yet means zero consumption, not an error
	count, err := repo.GetCounter(1, config.ResourceInvoiceExports)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, db.Create(&models.ResourceUsage{
		UserID:       1,
		ResourceType: config.ResourceInvoiceExports,
		CurrentCount: 2,
		LimitCount:   3,
	}).Error)

	count, err = repo.GetCounter(1, config.ResourceInvoiceExports)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Other resource types for the same user are independent rows
	count, err = repo.GetCounter(1, config.ResourceEmailShares)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestUsageRepository_IncrementWithCeiling(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	// First increment creates the row
	count, err := repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// A quota of 3 permits exactly 3 increments; the fourth is refused
	_, err = repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// The refused increment must not have touched the stored count
	count, err = repo.GetCounter(1, config.ResourceInvoiceExports)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUsageRepository_IncrementWithCeiling_Unlimited(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	// A negative limit is the unlimited sentinel; no ceiling applies
	for i := 1; i <= 10; i++ {
		count, err := repo.IncrementWithCeiling(1, config.ResourceEmailShares, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(i), count)
	}
}

func TestUsageRepository_IncrementWithCeiling_RaisedLimitUnblocks(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	for i := 0; i < 3; i++ {
		_, err := repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
		require.NoError(t, err)
	}
	_, err := repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	// After an upgrade the caller passes the new plan's quota and the same
	// counter row keeps counting from where it was
	count, err := repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	var usage models.ResourceUsage
	require.NoError(t, db.Where("user_id = ? AND resource_type = ?", 1, config.ResourceInvoiceExports).First(&usage).Error)
	assert.Equal(t, int64(50), usage.LimitCount)
}

func TestUsageRepository_SetLimit(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	_, err := repo.IncrementWithCeiling(1, config.ResourceInvoiceExports, 3)
	require.NoError(t, err)

	require.NoError(t, repo.SetLimit(1, config.ResourceInvoiceExports, 50))

	var usage models.ResourceUsage
	require.NoError(t, db.Where("user_id = ? AND resource_type = ?", 1, config.ResourceInvoiceExports).First(&usage).Error)
	assert.Equal(t, int64(50), usage.LimitCount)
	assert.Equal(t, int64(1), usage.CurrentCount, "refreshing the ceiling must not change the count")

	// Setting the limit for a user with no counter row is a no-op
	assert.NoError(t, repo.SetLimit(99, config.ResourceInvoiceExports, 50))
}

func TestUsageRepository_InsertLog(t *testing.T) {
	db := setupUsageTestDB(t)
	repo := NewUsageRepository(db)

	entry := &models.UsageLog{
		UserID:       1,
		Action:       "consume",
		ResourceType: config.ResourceInvoiceExports,
		ResourceID:   "inv-1",
		UserTier:     config.PlanFree,
		Details:      `{"format":"pdf"}`,
	}
	require.NoError(t, repo.InsertLog(entry))
	assert.NotEqual(t, entry.ID.String(), "00000000-0000-0000-0000-000000000000")

	var logs []models.UsageLog
	require.NoError(t, db.Where("user_id = ?", 1).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "consume", logs[0].Action)
	assert.Equal(t, config.ResourceInvoiceExports, logs[0].ResourceType)
	assert.Equal(t, config.PlanFree, logs[0].UserTier)
}
