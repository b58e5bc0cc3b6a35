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

func setupUserTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}))

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string, status config.SubscriptionStatus) *models.User {
	t.Helper()

	user := &models.User{
		Email:              email,
		FullName:           "Test User",
		Password:           "hashed",
		SubscriptionTier:   config.PlanPro,
		SubscriptionStatus: status,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestUserRepository_ListActive(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	active := seedUser(t, db, "active@example.com", config.SubscriptionActive)
	seedUser(t, db, "canceled@example.com", config.SubscriptionCanceled)
	seedUser(t, db, "pastdue@example.com", config.SubscriptionPastDue)

	users, err := repo.ListActive()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, active.ID, users[0].ID)
	assert.Equal(t, config.SubscriptionActive, users[0].SubscriptionStatus)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	seeded := seedUser(t, db, "found@example.com", config.SubscriptionActive)

	user, err := repo.FindByEmail("found@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_FindByID(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	seeded := seedUser(t, db, "byid@example.com", config.SubscriptionActive)

	user, err := repo.FindByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "byid@example.com", user.Email)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	db := setupUserTestDB(t)
	repo := NewUserRepository(db)

	user := seedUser(t, db, "upgrade@example.com", config.SubscriptionActive)
	user.SubscriptionTier = config.PlanBusiness

	require.NoError(t, repo.Update(user))

	got, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, config.PlanBusiness, got.SubscriptionTier)
}
