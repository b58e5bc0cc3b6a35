package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/invomate/backend-go/internal/cache"
	"github.com/invomate/backend-go/internal/config"
	"github.com/invomate/backend-go/internal/database/models"
	"github.com/invomate/backend-go/internal/database/repository"
)

// ==================== Repository Mocks ====================

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(client *models.Client) error {
	args := m.Called(client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(id uint) (*models.Client, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) ListByUser(userID uint) ([]models.Client, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Client), args.Error(1)
}

func (m *MockClientRepository) CountByUser(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Update(client *models.Client) error {
	args := m.Called(client)
	return args.Error(0)
}

func (m *MockClientRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(id uint) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) ListByUser(userID uint) ([]models.Product, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) CountByUser(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(invoice *models.Invoice) error {
	args := m.Called(invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(id uuid.UUID) (*models.Invoice, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListByUser(userID uint, limit, offset int) ([]models.Invoice, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) CountByUser(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Update(invoice *models.Invoice) error {
	args := m.Called(invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) UpdateStatus(id uuid.UUID, status models.InvoiceStatus) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(id uuid.UUID) error {
	args := m.Called(id)
	return args.Error(0)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) GetCounter(userID uint, resourceType config.ResourceType) (int64, error) {
	args := m.Called(userID, resourceType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) IncrementWithCeiling(userID uint, resourceType config.ResourceType, limit int64) (int64, error) {
	args := m.Called(userID, resourceType, limit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) SetLimit(userID uint, resourceType config.ResourceType, limit int64) error {
	args := m.Called(userID, resourceType, limit)
	return args.Error(0)
}

func (m *MockUsageRepository) InsertLog(entry *models.UsageLog) error {
	args := m.Called(entry)
	return args.Error(0)
}

// ==================== Test Fixtures ====================

type usageFixture struct {
	clientRepo  *MockClientRepository
	productRepo *MockProductRepository
	invoiceRepo *MockInvoiceRepository
	usageRepo   *MockUsageRepository
	cache       *cache.MemoryUsageCache
	service     UsageService
}

func newUsageFixture(t *testing.T) *usageFixture {
	t.Helper()

	f := &usageFixture{
		clientRepo:  new(MockClientRepository),
		productRepo: new(MockProductRepository),
		invoiceRepo: new(MockInvoiceRepository),
		usageRepo:   new(MockUsageRepository),
		cache:       cache.NewMemoryUsageCache(time.Minute),
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f.service = NewUsageService(f.clientRepo, f.productRepo, f.invoiceRepo, f.usageRepo, f.cache, logger)
	return f
}

func (f *usageFixture) expectCounts(userID uint, clients, products, invoices, exports, shares int64) {
	f.clientRepo.On("CountByUser", userID).Return(clients, nil)
	f.productRepo.On("CountByUser", userID).Return(products, nil)
	f.invoiceRepo.On("CountByUser", userID).Return(invoices, nil)
	f.usageRepo.On("GetCounter", userID, config.ResourceInvoiceExports).Return(exports, nil)
	f.usageRepo.On("GetCounter", userID, config.ResourceEmailShares).Return(shares, nil)
}

func testUser(tier config.PlanTier) *models.User {
	return &models.User{
		ID:                 1,
		Email:              "test@example.com",
		FullName:           "Test User",
		SubscriptionTier:   tier,
		SubscriptionStatus: config.SubscriptionActive,
	}
}

// ==================== GetUsageCounts ====================

func TestUsageService_GetUsageCounts(t *testing.T) {
	f := newUsageFixture(t)
	f.expectCounts(1, 3, 5, 7, 2, 1)

	counts := f.service.GetUsageCounts(context.Background(), 1, false)

	assert.Equal(t, int64(3), counts.Clients)
	assert.Equal(t, int64(5), counts.Products)
	assert.Equal(t, int64(7), counts.Invoices)
	assert.Equal(t, int64(2), counts.InvoiceExports)
	assert.Equal(t, int64(1), counts.EmailShares)
}

func TestUsageService_GetUsageCounts_ServesFromCache(t *testing.T) {
	f := newUsageFixture(t)
	f.expectCounts(1, 3, 5, 7, 2, 1)

	// First read populates the cache
	first := f.service.GetUsageCounts(context.Background(), 1, true)

	// Second cached read must not touch any repository again
	second := f.service.GetUsageCounts(context.Background(), 1, true)
	assert.Equal(t, first, second)

	f.clientRepo.AssertNumberOfCalls(t, "CountByUser", 1)
	f.invoiceRepo.AssertNumberOfCalls(t, "CountByUser", 1)
	f.usageRepo.AssertNumberOfCalls(t, "GetCounter", 2)
}

func TestUsageService_GetUsageCounts_BypassesCacheWhenDisabled(t *testing.T) {
	f := newUsageFixture(t)
	f.expectCounts(1, 3, 5, 7, 2, 1)

	f.service.GetUsageCounts(context.Background(), 1, true)
	f.service.GetUsageCounts(context.Background(), 1, false)

	f.clientRepo.AssertNumberOfCalls(t, "CountByUser", 2)
}

func TestUsageService_GetUsageCounts_FailOpenOnCountError(t *testing.T) {
	// A failing count must come back as zero, never as an error that could
	// block the caller's permission check.
	f := newUsageFixture(t)
	f.clientRepo.On("CountByUser", uint(1)).Return(int64(0), errors.New("connection refused"))
	f.productRepo.On("CountByUser", uint(1)).Return(int64(5), nil)
	f.invoiceRepo.On("CountByUser", uint(1)).Return(int64(0), errors.New("connection refused"))
	f.usageRepo.On("GetCounter", uint(1), config.ResourceInvoiceExports).Return(int64(0), errors.New("connection refused"))
	f.usageRepo.On("GetCounter", uint(1), config.ResourceEmailShares).Return(int64(2), nil)

	counts := f.service.GetUsageCounts(context.Background(), 1, false)

	assert.Equal(t, int64(0), counts.Clients)
	assert.Equal(t, int64(5), counts.Products)
	assert.Equal(t, int64(0), counts.Invoices)
	assert.Equal(t, int64(0), counts.InvoiceExports)
	assert.Equal(t, int64(2), counts.EmailShares)
}

func TestUsageService_GetUsageCounts_DegradedSnapshotIsNotCached(t *testing.T) {
	// Zeroed fallbacks from a failing read must not be pinned in the cache,
	// or every check during the TTL would see phantom headroom.
	f := newUsageFixture(t)
	f.clientRepo.On("CountByUser", uint(1)).Return(int64(0), errors.New("connection refused"))
	f.productRepo.On("CountByUser", uint(1)).Return(int64(5), nil)
	f.invoiceRepo.On("CountByUser", uint(1)).Return(int64(8), nil)
	f.usageRepo.On("GetCounter", uint(1), config.ResourceInvoiceExports).Return(int64(2), nil)
	f.usageRepo.On("GetCounter", uint(1), config.ResourceEmailShares).Return(int64(1), nil)

	f.service.GetUsageCounts(context.Background(), 1, true)

	_, ok := f.cache.Get(context.Background(), 1)
	assert.False(t, ok, "degraded snapshot must not be cached")

	// The next read goes back to the repositories instead of a stale zero
	f.service.GetUsageCounts(context.Background(), 1, true)
	f.clientRepo.AssertNumberOfCalls(t, "CountByUser", 2)
}

// ==================== TrackAction ====================

func TestUsageService_TrackAction_CounterResource(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanFree)

	f.usageRepo.On("IncrementWithCeiling", user.ID, config.ResourceInvoiceExports, int64(3)).Return(int64(1), nil)
	f.usageRepo.On("InsertLog", mock.MatchedBy(func(entry *models.UsageLog) bool {
		return entry.UserID == user.ID &&
			entry.Action == "consume" &&
			entry.ResourceType == config.ResourceInvoiceExports &&
			entry.UserTier == config.PlanFree
	})).Return(nil)

	ok := f.service.TrackAction(context.Background(), user, config.ResourceInvoiceExports, "inv-1", map[string]interface{}{"format": "pdf"})

	assert.True(t, ok)
	f.usageRepo.AssertExpectations(t)
}

func TestUsageService_TrackAction_UnlimitedPlanPassesSentinel(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanBusiness)

	f.usageRepo.On("IncrementWithCeiling", user.ID, config.ResourceInvoiceExports, int64(config.Unlimited)).Return(int64(500), nil)
	f.usageRepo.On("InsertLog", mock.Anything).Return(nil)

	ok := f.service.TrackAction(context.Background(), user, config.ResourceInvoiceExports, "inv-1", nil)
	assert.True(t, ok)
}

func TestUsageService_TrackAction_NonCounterResourceOnlyLogs(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanPro)

	f.usageRepo.On("InsertLog", mock.MatchedBy(func(entry *models.UsageLog) bool {
		return entry.ResourceType == config.ResourceClients
	})).Return(nil)

	ok := f.service.TrackAction(context.Background(), user, config.ResourceClients, "42", nil)

	assert.True(t, ok)
	f.usageRepo.AssertNotCalled(t, "IncrementWithCeiling", mock.Anything, mock.Anything, mock.Anything)
}

func TestUsageService_TrackAction_QuotaExceededReportsFalse(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanFree)

	f.usageRepo.On("IncrementWithCeiling", user.ID, config.ResourceEmailShares, int64(3)).Return(int64(0), repository.ErrQuotaExceeded)
	// The audit log is still written even when the counter refuses
	f.usageRepo.On("InsertLog", mock.Anything).Return(nil)

	ok := f.service.TrackAction(context.Background(), user, config.ResourceEmailShares, "inv-1", nil)

	assert.False(t, ok)
	f.usageRepo.AssertExpectations(t)
}

func TestUsageService_TrackAction_UnknownActionType(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanFree)

	ok := f.service.TrackAction(context.Background(), user, config.ResourceType("teleports"), "x", nil)

	assert.False(t, ok)
	f.usageRepo.AssertNotCalled(t, "InsertLog", mock.Anything)
}

func TestUsageService_TrackAction_InvalidatesCachedSnapshot(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanFree)
	ctx := context.Background()

	// Prime the cache with a pre-action snapshot
	f.expectCounts(user.ID, 1, 1, 2, 2, 0)
	before := f.service.GetUsageCounts(ctx, user.ID, true)
	assert.Equal(t, int64(2), before.InvoiceExports)

	f.usageRepo.On("IncrementWithCeiling", user.ID, config.ResourceInvoiceExports, int64(3)).Return(int64(3), nil)
	f.usageRepo.On("InsertLog", mock.Anything).Return(nil)

	require.True(t, f.service.TrackAction(ctx, user, config.ResourceInvoiceExports, "inv-9", nil))

	// The stale snapshot must be gone so the next read is fresh
	_, hit := f.cache.Get(ctx, user.ID)
	assert.False(t, hit, "tracked action must invalidate the cached snapshot")
}

func TestUsageService_TrackAction_LogFailureReportsFalse(t *testing.T) {
	f := newUsageFixture(t)
	user := testUser(config.PlanPro)

	f.usageRepo.On("InsertLog", mock.Anything).Return(errors.New("disk full"))

	ok := f.service.TrackAction(context.Background(), user, config.ResourceClients, "42", nil)
	assert.False(t, ok)
}
